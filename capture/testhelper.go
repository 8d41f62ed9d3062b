// ABOUTME: Test utilities for driving capture sessions without hardware
// ABOUTME: Manual clock, scripted device and scripted live feed
package capture

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/onsite/media"
)

// ManualClock hands out tickers that only fire when the test says so.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*ManualTicker
}

func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &ManualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Active counts tickers that have not been stopped.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.Stopped() {
			n++
		}
	}
	return n
}

// Created counts every ticker ever handed out.
func (c *ManualClock) Created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type ManualTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (t *ManualTicker) C() <-chan time.Time { return t.ch }

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// ScriptedDevice is an in-memory microphone.
type ScriptedDevice struct {
	OpenErr     error
	FinalizeErr error
	Data        []byte
	PCM         string

	mu     sync.Mutex
	opened int
	closed int
}

func (d *ScriptedDevice) Open(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.opened++
	s := &scriptedStream{dev: d}
	if d.PCM != "" {
		s.tap = strings.NewReader(d.PCM)
	}
	return s, nil
}

func (d *ScriptedDevice) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

func (d *ScriptedDevice) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type scriptedStream struct {
	dev  *ScriptedDevice
	tap  io.Reader
	once sync.Once
}

func (s *scriptedStream) Tap() io.Reader {
	if s.tap == nil {
		return nil
	}
	return s.tap
}

func (s *scriptedStream) Finalize(ctx context.Context) (media.Blob, error) {
	if s.dev.FinalizeErr != nil {
		return media.Blob{}, s.dev.FinalizeErr
	}
	data := s.dev.Data
	if data == nil {
		data = []byte("RIFF")
	}
	return media.Blob{Name: "take.wav", MIMEType: "audio/wav", Data: data}, nil
}

func (s *scriptedStream) Close() error {
	s.once.Do(func() {
		s.dev.mu.Lock()
		s.dev.closed++
		s.dev.mu.Unlock()
	})
	return nil
}

// ScriptedFeed replays fixed live transcript updates.
type ScriptedFeed struct {
	StartErr    error
	Results     []string
	FinalOnStop string

	mu       sync.Mutex
	started  int
	stopped  int
	onResult func(string)
	onEnd    func()
}

func (f *ScriptedFeed) Start(ctx context.Context, pcm io.Reader, onResult func(string), onEnd func()) error {
	if f.StartErr != nil {
		return f.StartErr
	}
	f.mu.Lock()
	f.started++
	f.onResult = onResult
	f.onEnd = onEnd
	f.mu.Unlock()

	go func() { _, _ = io.Copy(io.Discard, pcm) }()
	for _, r := range f.Results {
		onResult(r)
	}
	return nil
}

// Emit pushes one more live update while recording.
func (f *ScriptedFeed) Emit(text string) {
	f.mu.Lock()
	fn := f.onResult
	f.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

func (f *ScriptedFeed) Stop() error {
	f.mu.Lock()
	f.stopped++
	onResult, onEnd := f.onResult, f.onEnd
	f.onResult = nil
	f.mu.Unlock()

	if f.FinalOnStop != "" && onResult != nil {
		onResult(f.FinalOnStop)
	}
	if onEnd != nil {
		onEnd()
	}
	return nil
}

func (f *ScriptedFeed) Started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *ScriptedFeed) Stopped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}
