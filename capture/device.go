// ABOUTME: Ports for audio input devices, capture streams, live speech feeds and clocks
// ABOUTME: Includes the exclusive-device guard shared by every recording surface
package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/harperreed/onsite/media"
)

// ErrDeviceBusy is returned when another capture already holds the device.
var ErrDeviceBusy = errors.New("audio input device already in use")

// Device opens the hardware audio input.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is one open capture. Finalize stops capturing and returns the
// recorded audio; Close releases the hardware and must be safe to call twice.
type Stream interface {
	Finalize(ctx context.Context) (media.Blob, error)
	Close() error
}

// Tapper is implemented by streams that expose raw 16 kHz mono s16le PCM
// while recording. Tap returns nil when no tap is available. The tap must be
// drained for as long as the stream is capturing.
type Tapper interface {
	Tap() io.Reader
}

// LiveFeed is an optional speech-to-text capability fed while recording.
// onResult receives the cumulative best-effort transcript; each call replaces
// the previous one.
type LiveFeed interface {
	Start(ctx context.Context, pcm io.Reader, onResult func(text string), onEnd func()) error
	Stop() error
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// Exclusive wraps a device so that only one stream can be open at a time.
func Exclusive(d Device) Device {
	return &exclusiveDevice{dev: d}
}

type exclusiveDevice struct {
	dev Device

	mu   sync.Mutex
	held bool
}

func (e *exclusiveDevice) Open(ctx context.Context) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.held {
		return nil, ErrDeviceBusy
	}

	st, err := e.dev.Open(ctx)
	if err != nil {
		return nil, err
	}
	e.held = true
	return &heldStream{Stream: st, owner: e}, nil
}

func (e *exclusiveDevice) release() {
	e.mu.Lock()
	e.held = false
	e.mu.Unlock()
}

type heldStream struct {
	Stream
	owner *exclusiveDevice
	once  sync.Once
}

func (h *heldStream) Tap() io.Reader {
	if t, ok := h.Stream.(Tapper); ok {
		return t.Tap()
	}
	return nil
}

func (h *heldStream) Close() error {
	err := h.Stream.Close()
	h.once.Do(h.owner.release)
	return err
}
