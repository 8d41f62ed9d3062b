// ABOUTME: MediaCaptureSession: one device stream, one 1 Hz timer and an optional live feed
// ABOUTME: Enforces the hard recording cutoff and releases every resource on all exit paths
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/models"
)

// DefaultCutoffSeconds is the longest a single recording may run. Shorter
// cutoffs are allowed, longer ones are clamped.
const DefaultCutoffSeconds = 300

var ErrAlreadyRecording = errors.New("capture session already recording")

// Capture is the result of ending a recording.
type Capture struct {
	Audio          models.AudioRef
	Locator        string
	Blob           media.Blob
	LiveTranscript string
	Elapsed        int
}

// Options configures a Session. Device and Library are required.
type Options struct {
	Device  Device
	Library *media.Library
	Feed    LiveFeed
	Clock   Clock
	Cutoff  int
	Logger  *log.Logger
}

// Session wraps exactly one audio capture at a time.
type Session struct {
	device  Device
	library *media.Library
	feed    LiveFeed
	clock   Clock
	cutoff  int
	logger  *log.Logger

	mu        sync.Mutex
	recording bool
	opening   bool
	elapsed   int
	live      string
	gen       uint64
	stream    Stream
	release   func()

	onLive     func(string)
	onAutoStop func(*Capture, error)
}

func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Cutoff <= 0 || opts.Cutoff > DefaultCutoffSeconds {
		opts.Cutoff = DefaultCutoffSeconds
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{
		device:  opts.Device,
		library: opts.Library,
		feed:    opts.Feed,
		clock:   opts.Clock,
		cutoff:  opts.Cutoff,
		logger:  opts.Logger,
	}
}

// OnLiveTranscript registers the callback for live transcript updates.
func (s *Session) OnLiveTranscript(fn func(text string)) {
	s.mu.Lock()
	s.onLive = fn
	s.mu.Unlock()
}

// OnAutoStop registers the callback that receives the capture when the
// cutoff ends a recording.
func (s *Session) OnAutoStop(fn func(*Capture, error)) {
	s.mu.Lock()
	s.onAutoStop = fn
	s.mu.Unlock()
}

func (s *Session) Cutoff() int {
	return s.cutoff
}

func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) LiveTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Begin acquires the device and starts the timer and live feed. Any
// device failure is reported as models.ErrDeviceUnavailable and leaves the
// session untouched.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.recording || s.opening {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.opening = true
	s.gen++
	gen := s.gen
	s.live = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.opening = false
		s.mu.Unlock()
	}()

	stream, err := s.device.Open(ctx)
	if err != nil {
		s.logger.Warn("audio device open failed", "err", err)
		return fmt.Errorf("%w: %v", models.ErrDeviceUnavailable, err)
	}

	ticker := s.clock.NewTicker(time.Second)
	done := make(chan struct{})
	feedRunning := s.startFeed(ctx, gen, stream)

	var once sync.Once
	release := func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			if feedRunning {
				if err := s.feed.Stop(); err != nil {
					s.logger.Warn("live feed stop failed", "err", err)
				}
			}
			if err := stream.Close(); err != nil {
				s.logger.Warn("audio stream close failed", "err", err)
			}
		})
	}

	s.mu.Lock()
	s.recording = true
	s.elapsed = 0
	s.stream = stream
	s.release = release
	s.mu.Unlock()

	go s.run(gen, ticker, done)

	s.logger.Info("recording started", "cutoff", s.cutoff, "live_feed", feedRunning)
	return nil
}

// startFeed starts the live feed when both a feed and a PCM tap exist.
// Failures are logged and the tap is drained instead.
func (s *Session) startFeed(ctx context.Context, gen uint64, stream Stream) bool {
	var pcm io.Reader
	if t, ok := stream.(Tapper); ok {
		pcm = t.Tap()
	}
	if pcm == nil {
		return false
	}

	if s.feed != nil {
		err := s.feed.Start(ctx, pcm,
			func(text string) { s.updateLive(gen, text) },
			func() { s.logger.Debug("live feed ended") },
		)
		if err == nil {
			return true
		}
		s.logger.Warn("live feed unavailable, continuing without live transcript", "err", err)
	}

	go func() { _, _ = io.Copy(io.Discard, pcm) }()
	return false
}

func (s *Session) updateLive(gen uint64, text string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.live = text
	fn := s.onLive
	recording := s.recording
	s.mu.Unlock()

	if fn != nil && recording {
		fn(text)
	}
}

func (s *Session) run(gen uint64, t Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-t.C():
			s.tick(gen)
		}
	}
}

// Tick advances the current recording by one second.
func (s *Session) Tick() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.tick(gen)
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if !s.recording || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	reached := s.elapsed >= s.cutoff
	s.mu.Unlock()

	if !reached {
		return
	}

	s.logger.Info("recording cutoff reached", "seconds", s.cutoff)
	c, err := s.End(context.Background())
	if c == nil && err == nil {
		return
	}

	s.mu.Lock()
	fn := s.onAutoStop
	s.mu.Unlock()
	if fn != nil {
		fn(c, err)
	}
}

// End finalizes the recording, stores the blob and releases the device,
// timer and live feed. It is a no-op when nothing is recording.
func (s *Session) End(ctx context.Context) (*Capture, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return nil, nil
	}
	s.recording = false
	stream := s.stream
	release := s.release
	elapsed := s.elapsed
	s.stream = nil
	s.release = nil
	s.mu.Unlock()

	blob, ferr := stream.Finalize(ctx)
	release()
	if ferr != nil {
		return nil, fmt.Errorf("finalize recording: %w", ferr)
	}

	ref, err := s.library.Store(blob)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		Audio:          ref,
		Locator:        s.library.Locate(ref),
		Blob:           blob,
		LiveTranscript: s.LiveTranscript(),
		Elapsed:        elapsed,
	}
	s.logger.Info("recording stopped", "seconds", elapsed, "bytes", ref.Size)
	return c, nil
}
