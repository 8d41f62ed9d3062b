// ABOUTME: Interview navigation over the fixed, ordered prompt list
// ABOUTME: Position stays within bounds; advancing past the last prompt signals completion
package interview

import "github.com/harperreed/onsite/models"

// Navigator tracks the current prompt of an interview whose length never changes.
type Navigator struct {
	pos    int
	length int
}

func NewNavigator(length int) *Navigator {
	if length < 1 {
		length = 1
	}
	return &Navigator{length: length}
}

func (n *Navigator) Position() int { return n.pos }
func (n *Navigator) Len() int      { return n.length }

// Last reports whether the current prompt is the final one.
func (n *Navigator) Last() bool { return n.pos == n.length-1 }

// Advance moves forward one prompt. At the last prompt it stays put and
// returns true to signal the interview is complete.
func (n *Navigator) Advance() bool {
	if n.Last() {
		return true
	}
	n.pos++
	return false
}

// Retreat moves back one prompt; it does nothing at the first prompt.
func (n *Navigator) Retreat() {
	if n.pos > 0 {
		n.pos--
	}
}

// Skip is Advance without any expectation of content.
func (n *Navigator) Skip() bool {
	return n.Advance()
}

// Seek jumps to a prompt, clamped to the interview.
func (n *Navigator) Seek(i int) {
	switch {
	case i < 0:
		n.pos = 0
	case i >= n.length:
		n.pos = n.length - 1
	default:
		n.pos = i
	}
}

// CountAnswered returns how many answers hold content.
func CountAnswered(prompts []models.PromptAnswer) int {
	n := 0
	for _, p := range prompts {
		if p.Answered() {
			n++
		}
	}
	return n
}
