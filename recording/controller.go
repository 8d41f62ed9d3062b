// ABOUTME: Recording lifecycle controller shared by the intro and question surfaces
// ABOUTME: Drives a capture session and writes audio, transcripts and typed text into one bound answer
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/capture"
	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/models"
)

var (
	// ErrBusy means a start or processing step is still pending.
	ErrBusy = errors.New("recorder busy")
	// ErrNotBound means the controller has no answer to write into yet.
	ErrNotBound = errors.New("recorder not bound to an answer")

	ErrNothingToPlay       = errors.New("no recording to play")
	ErrPlaybackUnavailable = errors.New("audio playback unavailable")
)

type State int

const (
	Idle State = iota
	Recording
	Processing
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Binding is the answer a controller currently writes into. Update must
// apply fn atomically and persist the owning visit.
type Binding interface {
	Current() models.PromptAnswer
	Update(fn func(p *models.PromptAnswer)) error
}

// Transcriber turns finalized audio into text after a recording stops.
type Transcriber interface {
	Transcribe(ctx context.Context, blob media.Blob) (string, error)
}

// Snapshot is a consistent view of a controller for rendering.
type Snapshot struct {
	State          State
	Elapsed        int
	Cutoff         int
	LiveTranscript string
	Playing        bool
}

// Config wires a controller. Session and Library are required; Transcriber
// and Player are optional capabilities.
type Config struct {
	Name        string
	Session     *capture.Session
	Library     *media.Library
	Transcriber Transcriber
	Player      Player
	Logger      *log.Logger
}

type Controller struct {
	session     *capture.Session
	library     *media.Library
	transcriber Transcriber
	player      Player
	logger      *log.Logger

	mu       sync.Mutex
	state    State
	starting bool
	binding  Binding
	gen      uint64
	playback Playback
	onChange func()

	// pending counts write-backs that have not settled yet; settled is
	// signalled on c.mu whenever one does.
	pending int
	settled *sync.Cond
}

func NewController(cfg Config, b Binding) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Name != "" {
		logger = logger.With("surface", cfg.Name)
	}

	c := &Controller{
		session:     cfg.Session,
		library:     cfg.Library,
		transcriber: cfg.Transcriber,
		player:      cfg.Player,
		logger:      logger,
		binding:     b,
		state:       restingState(b),
	}
	c.settled = sync.NewCond(&c.mu)
	cfg.Session.OnAutoStop(c.handleAutoStop)
	cfg.Session.OnLiveTranscript(func(string) { c.notify() })
	return c
}

func restingState(b Binding) State {
	if b != nil && b.Current().Answered() {
		return Ready
	}
	return Idle
}

// OnChange registers a callback fired after every state or content change.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	state := c.state
	playing := c.playback != nil
	c.mu.Unlock()

	return Snapshot{
		State:          state,
		Elapsed:        c.session.Elapsed(),
		Cutoff:         c.session.Cutoff(),
		LiveTranscript: c.session.LiveTranscript(),
		Playing:        playing,
	}
}

// Current returns the bound answer.
func (c *Controller) Current() models.PromptAnswer {
	c.mu.Lock()
	b := c.binding
	c.mu.Unlock()
	if b == nil {
		return models.PromptAnswer{}
	}
	return b.Current()
}

// Start begins recording into the bound answer.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.binding == nil {
		c.mu.Unlock()
		return ErrNotBound
	}
	if c.starting || c.state == Recording || c.state == Processing {
		c.mu.Unlock()
		return ErrBusy
	}
	c.starting = true
	gen := c.gen
	c.mu.Unlock()

	c.stopPlayback()
	err := c.session.Begin(ctx)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("could not start recording", "err", err)
		return err
	}
	if gen != c.gen {
		// Rebound while the device was opening; the new answer never asked to record.
		binding := c.binding
		c.mu.Unlock()
		c.forceStop(gen, binding)
		return nil
	}
	c.state = Recording
	c.mu.Unlock()

	c.notify()
	return nil
}

// Stop ends the recording and processes it before returning.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Processing || c.starting {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != Recording {
		c.mu.Unlock()
		return nil
	}
	c.state = Processing
	gen, binding := c.gen, c.binding
	c.mu.Unlock()
	c.notify()

	capt, err := c.session.End(ctx)
	if capt == nil && err == nil {
		// The cutoff got there first and owns the write-back.
		return nil
	}
	c.track()
	c.finish(ctx, gen, binding, capt, err)
	return nil
}

// handleAutoStop runs on the session's timer goroutine when the cutoff hits.
func (c *Controller) handleAutoStop(capt *capture.Capture, err error) {
	c.mu.Lock()
	c.state = Processing
	gen, binding := c.gen, c.binding
	c.pending++
	c.mu.Unlock()
	c.notify()

	c.logger.Info("recording reached cutoff, stopping")
	c.finish(context.Background(), gen, binding, capt, err)
}

// StopAllMedia force-stops recording and playback before the surface is
// torn down or pointed at another answer. The device and timer are released
// before it returns; transcription of the stopped take finishes in the
// background and still lands in the answer it was recorded for.
func (c *Controller) StopAllMedia() {
	c.stopPlayback()

	c.mu.Lock()
	if c.state != Recording {
		c.mu.Unlock()
		return
	}
	c.state = Processing
	gen, binding := c.gen, c.binding
	c.mu.Unlock()
	c.notify()

	c.forceStop(gen, binding)
}

func (c *Controller) forceStop(gen uint64, binding Binding) {
	capt, err := c.session.End(context.Background())
	if capt == nil && err == nil {
		return
	}
	c.track()
	go c.finish(context.Background(), gen, binding, capt, err)
}

// Rebind stops all media and points the controller at another answer.
func (c *Controller) Rebind(b Binding) {
	c.StopAllMedia()

	c.mu.Lock()
	c.gen++
	c.binding = b
	c.state = restingState(b)
	c.mu.Unlock()
	c.notify()
}

// finish runs Processing: optional post-hoc transcription, then write-back.
func (c *Controller) finish(ctx context.Context, gen uint64, binding Binding, capt *capture.Capture, err error) {
	if err != nil {
		c.logger.Error("recording could not be finalized", "err", err)
		c.settle(gen, binding)
		return
	}

	transcript := c.transcribe(ctx, capt.Blob, capt.LiveTranscript)

	var previous *models.AudioRef
	var previousLocator string
	uerr := binding.Update(func(p *models.PromptAnswer) {
		previous, previousLocator = detachAudio(p)
		audio := capt.Audio
		p.Audio = &audio
		p.Locator = capt.Locator
		p.Transcript = transcript
	})
	if uerr != nil {
		// The answer still points at the previous take; drop the new one.
		c.logger.Error("saving recording failed", "err", uerr)
		audio := capt.Audio
		c.releaseAudio(&audio, capt.Locator)
	} else {
		c.releaseAudio(previous, previousLocator)
	}
	c.settle(gen, binding)
}

// transcribe prefers the post-hoc transcript and falls back to the live one.
func (c *Controller) transcribe(ctx context.Context, blob media.Blob, live string) string {
	if c.transcriber == nil {
		c.logger.Debug("no transcriber configured, keeping live transcript")
		return live
	}

	text, err := c.transcriber.Transcribe(ctx, blob)
	if err != nil {
		c.logger.Warn("transcription failed, keeping live transcript",
			"err", fmt.Errorf("%w: %v", models.ErrTranscriptionUnavailable, err))
		return live
	}
	if text == "" {
		return live
	}
	return text
}

// settle moves to the resting state unless the controller was rebound
// meanwhile, and marks the pending take or upload as done.
func (c *Controller) settle(gen uint64, binding Binding) {
	c.mu.Lock()
	if gen == c.gen {
		c.state = restingState(binding)
	}
	c.pending--
	c.settled.Broadcast()
	c.mu.Unlock()
	c.notify()
}

// track registers a write-back that settle will mark done.
func (c *Controller) track() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
}

// detachAudio clears the audio fields of an answer and hands back what they
// held. The blob and locator stay valid until releaseAudio.
func detachAudio(p *models.PromptAnswer) (*models.AudioRef, string) {
	audio, locator := p.Audio, p.Locator
	p.Audio = nil
	p.Locator = ""
	return audio, locator
}

func (c *Controller) releaseAudio(audio *models.AudioRef, locator string) {
	c.library.Revoke(locator)
	if audio == nil {
		return
	}
	if err := c.library.Release(*audio); err != nil {
		c.logger.Warn("releasing audio failed", "err", err)
	}
}

// Clear empties audio, transcript and typed text in one update.
func (c *Controller) Clear() error {
	c.mu.Lock()
	if c.binding == nil {
		c.mu.Unlock()
		return ErrNotBound
	}
	if c.starting || c.state == Recording || c.state == Processing {
		c.mu.Unlock()
		return ErrBusy
	}
	binding := c.binding
	c.mu.Unlock()

	c.stopPlayback()

	var audio *models.AudioRef
	var locator string
	err := binding.Update(func(p *models.PromptAnswer) {
		audio, locator = detachAudio(p)
		p.Transcript = ""
		p.TypedText = ""
	})
	if err != nil {
		return err
	}
	c.releaseAudio(audio, locator)

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetText stores typed notes. Outside a recording it moves the controller
// straight to Ready (or back to Idle when everything is empty).
func (c *Controller) SetText(text string) error {
	c.mu.Lock()
	binding := c.binding
	c.mu.Unlock()
	if binding == nil {
		return ErrNotBound
	}

	if err := binding.Update(func(p *models.PromptAnswer) { p.TypedText = text }); err != nil {
		return err
	}

	c.mu.Lock()
	if !c.starting && (c.state == Idle || c.state == Ready) {
		c.state = restingState(binding)
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// Upload attaches an existing audio file to the answer and transcribes it.
func (c *Controller) Upload(ctx context.Context, blob media.Blob) error {
	c.mu.Lock()
	if c.binding == nil {
		c.mu.Unlock()
		return ErrNotBound
	}
	if c.starting || c.state == Recording || c.state == Processing {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Processing
	gen, binding := c.gen, c.binding
	c.pending++
	c.mu.Unlock()
	c.notify()

	c.stopPlayback()

	ref, err := c.library.Store(blob)
	if err != nil {
		c.settle(gen, binding)
		return err
	}

	c.finish(ctx, gen, binding, &capture.Capture{
		Audio:   ref,
		Locator: c.library.Locate(ref),
		Blob:    blob,
	}, nil)
	return nil
}

// Wait blocks until pending write-backs have landed.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.settled.Wait()
	}
}
