// ABOUTME: AssemblyAI realtime streaming live feed over gorilla/websocket
// ABOUTME: Accumulates formatted turns plus the current partial turn into one cumulative transcript
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	AssemblyAIURL = "wss://streaming.assemblyai.com/v3/ws"

	// 100ms of 16 kHz s16le mono audio.
	feedChunkSize       = SampleRate * 2 / 10
	terminationWait     = 2 * time.Second
	terminateWriteGrace = time.Second
)

// WebsocketDialer is satisfied by *websocket.Dialer.
type WebsocketDialer interface {
	Dial(string, http.Header) (*websocket.Conn, *http.Response, error)
}

type turnMessage struct {
	Type            string `json:"type"`
	Transcript      string `json:"transcript"`
	TurnOrder       int    `json:"turn_order"`
	TurnIsFormatted bool   `json:"turn_is_formatted"`
	EndOfTurn       bool   `json:"end_of_turn"`
}

type terminateMessage struct {
	Type string `json:"type"`
}

// AssemblyAIFeed streams microphone PCM to AssemblyAI while recording.
type AssemblyAIFeed struct {
	APIKey string
	URL    string
	Dialer WebsocketDialer
	Logger *log.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	finished chan struct{}
	stopped  chan struct{}
}

// NewAssemblyAIFeed returns nil when no API key is configured so callers can
// treat a missing key as "no live feed".
func NewAssemblyAIFeed(apiKey string, logger *log.Logger) *AssemblyAIFeed {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AssemblyAIFeed{
		APIKey: apiKey,
		URL:    AssemblyAIURL,
		Dialer: websocket.DefaultDialer,
		Logger: logger,
	}
}

func (f *AssemblyAIFeed) logger() *log.Logger {
	if f.Logger == nil {
		return log.Default()
	}
	return f.Logger
}

func (f *AssemblyAIFeed) Start(ctx context.Context, pcm io.Reader, onResult func(string), onEnd func()) error {
	if strings.TrimSpace(f.APIKey) == "" {
		return errors.New("assemblyai api key is not configured")
	}

	u, err := url.Parse(f.URL)
	if err != nil {
		return fmt.Errorf("parse assemblyai url: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", fmt.Sprint(SampleRate))
	q.Set("format_turns", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", f.APIKey)

	dialer := f.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.Dial(u.String(), headers)
	if err != nil {
		return fmt.Errorf("connect to assemblyai: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.finished = make(chan struct{})
	f.stopped = make(chan struct{})
	finished, stopped := f.finished, f.stopped
	f.mu.Unlock()

	go f.listen(conn, finished, onResult, onEnd)
	go f.pump(conn, pcm, stopped)
	return nil
}

func (f *AssemblyAIFeed) listen(conn *websocket.Conn, finished chan struct{}, onResult func(string), onEnd func()) {
	defer close(finished)
	defer func() {
		if onEnd != nil {
			onEnd()
		}
	}()

	var finals []string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			f.logger().Debug("assemblyai read ended", "err", err)
			return
		}

		var msg turnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			f.logger().Warn("assemblyai message not understood", "err", err)
			continue
		}

		switch msg.Type {
		case "Turn":
			partial := ""
			if msg.TurnIsFormatted {
				finals = append(finals, strings.TrimSpace(msg.Transcript))
			} else {
				partial = msg.Transcript
			}
			if onResult != nil {
				onResult(cumulative(finals, partial))
			}
		case "Termination":
			return
		case "Error":
			f.logger().Warn("assemblyai error", "message", string(message))
			return
		}
	}
}

func cumulative(finals []string, partial string) string {
	parts := make([]string, 0, len(finals)+1)
	for _, s := range finals {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if p := strings.TrimSpace(partial); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// pump forwards PCM chunks until the tap ends. After Stop or a write error it
// keeps draining so the capture process never blocks on a full pipe.
func (f *AssemblyAIFeed) pump(conn *websocket.Conn, pcm io.Reader, stopped <-chan struct{}) {
	buf := make([]byte, feedChunkSize)
	sending := true
	for {
		n, err := io.ReadFull(pcm, buf)
		if n > 0 && sending {
			select {
			case <-stopped:
				sending = false
			default:
				f.writeMu.Lock()
				werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n])
				f.writeMu.Unlock()
				if werr != nil {
					f.logger().Debug("assemblyai write failed, draining", "err", werr)
					sending = false
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// Stop sends Terminate, waits briefly for the final turns and closes the socket.
func (f *AssemblyAIFeed) Stop() error {
	f.mu.Lock()
	conn, finished, stopped := f.conn, f.finished, f.stopped
	f.conn = nil
	f.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(stopped)

	data, _ := json.Marshal(terminateMessage{Type: "Terminate"})
	f.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(terminateWriteGrace))
	werr := conn.WriteMessage(websocket.TextMessage, data)
	f.writeMu.Unlock()

	if werr == nil {
		select {
		case <-finished:
		case <-time.After(terminationWait):
		}
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("close assemblyai socket: %w", err)
	}
	<-finished
	return nil
}
