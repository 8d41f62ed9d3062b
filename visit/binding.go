// ABOUTME: Bindings tie a recording controller to one answer of one visit
// ABOUTME: The intro binding also copies its transcript into the customer overview
package visit

import (
	"github.com/google/uuid"

	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/recording"
)

const introIndex = -1

type answerBinding struct {
	w       *Workspace
	visitID uuid.UUID
	index   int
}

// PromptBinding binds interview prompt i of the active visit.
func (w *Workspace) PromptBinding(i int) recording.Binding {
	return &answerBinding{w: w, visitID: w.activeID(), index: i}
}

// IntroBinding binds the customer-intro recording of the active visit.
func (w *Workspace) IntroBinding() recording.Binding {
	return &answerBinding{w: w, visitID: w.activeID(), index: introIndex}
}

func (w *Workspace) activeID() uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return uuid.Nil
	}
	return w.active.ID
}

func (b *answerBinding) answer(v *models.Visit) *models.PromptAnswer {
	if b.index == introIndex {
		return &v.Intro
	}
	if b.index < 0 || b.index >= len(v.Prompts) {
		return nil
	}
	return &v.Prompts[b.index]
}

func (b *answerBinding) Current() models.PromptAnswer {
	b.w.mu.Lock()
	defer b.w.mu.Unlock()

	var v *models.Visit
	if b.w.active != nil && b.w.active.ID == b.visitID {
		v = b.w.active
	} else {
		stored, err := b.w.store.Get(b.visitID)
		if err != nil {
			return models.PromptAnswer{}
		}
		v = stored
	}

	if p := b.answer(v); p != nil {
		return *p
	}
	return models.PromptAnswer{}
}

func (b *answerBinding) Update(fn func(p *models.PromptAnswer)) error {
	return b.w.apply(b.visitID, func(v *models.Visit) error {
		p := b.answer(v)
		if p == nil {
			return models.ErrNotFound
		}

		before := p.Transcript
		fn(p)

		if b.index == introIndex && p.Transcript != before && p.Transcript != "" {
			v.CustomerSummary = p.Transcript
		}
		return nil
	})
}
