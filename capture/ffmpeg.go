// ABOUTME: ffmpeg-backed microphone device recording mono 16 kHz WAV
// ABOUTME: Optionally tees raw s16le PCM to stdout for the live speech feed
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/onsite/media"
)

const (
	SampleRate = 16000

	// probeWindow is how long Open waits for ffmpeg to fail on a bad device.
	probeWindow = 300 * time.Millisecond
	stopTimeout = 5 * time.Second
)

// FFmpegDevice records from the system microphone through ffmpeg.
type FFmpegDevice struct {
	Binary      string
	InputFormat string
	Input       string
	TempDir     string
	Live        bool
}

// DefaultInput returns the ffmpeg input format and device for this platform.
func DefaultInput() (format, input string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":default"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

func (d *FFmpegDevice) binary() string {
	if d.Binary != "" {
		return d.Binary
	}
	return "ffmpeg"
}

// CheckFFmpeg reports whether the ffmpeg binary can be found.
func (d *FFmpegDevice) CheckFFmpeg() error {
	if _, err := exec.LookPath(d.binary()); err != nil {
		return fmt.Errorf("ffmpeg not found: install it with your package manager")
	}
	return nil
}

func (d *FFmpegDevice) Open(ctx context.Context) (Stream, error) {
	if err := d.CheckFFmpeg(); err != nil {
		return nil, err
	}

	format, input := DefaultInput()
	if d.InputFormat != "" {
		format = d.InputFormat
	}
	if d.Input != "" {
		input = d.Input
	}

	dir := d.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	path := filepath.Join(dir, "capture-"+ulid.Make().String()+".wav")

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", format,
		"-i", input,
		"-ac", "1",
		"-ar", fmt.Sprint(SampleRate),
		"-y", path,
	}
	if d.Live {
		args = append(args, "-f", "s16le", "-ac", "1", "-ar", fmt.Sprint(SampleRate), "pipe:1")
	}

	// Not bound to ctx: the recording outlives the call that starts it.
	cmd := exec.Command(d.binary(), args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	var stdout io.ReadCloser
	if d.Live {
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("ffmpeg stdout: %w", err)
		}
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := &ffmpegStream{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		path:   path,
		exited: make(chan struct{}),
	}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()

	select {
	case <-s.exited:
		_ = os.Remove(path)
		return nil, fmt.Errorf("ffmpeg exited while opening %s %s: %s", format, input, bytes.TrimSpace(stderr.Bytes()))
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	case <-time.After(probeWindow):
	}

	return s, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	path   string

	exited  chan struct{}
	waitErr error

	stopOnce  sync.Once
	closeOnce sync.Once
}

func (s *ffmpegStream) Tap() io.Reader {
	if s.stdout == nil {
		return nil
	}
	return s.stdout
}

// stop asks ffmpeg to quit so it writes a valid WAV trailer.
func (s *ffmpegStream) stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		_, _ = io.WriteString(s.stdin, "q")
		_ = s.stdin.Close()

		select {
		case <-s.exited:
		case <-ctx.Done():
			_ = s.cmd.Process.Kill()
			<-s.exited
		case <-time.After(stopTimeout):
			_ = s.cmd.Process.Kill()
			<-s.exited
		}
	})
}

func (s *ffmpegStream) Finalize(ctx context.Context) (media.Blob, error) {
	s.stop(ctx)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return media.Blob{}, fmt.Errorf("read recording: %w", err)
	}
	return media.Blob{
		Name:     fmt.Sprintf("recording-%d.wav", time.Now().Unix()),
		MIMEType: "audio/wav",
		Data:     data,
	}, nil
}

func (s *ffmpegStream) Close() error {
	s.stop(context.Background())
	s.closeOnce.Do(func() {
		_ = os.Remove(s.path)
	})
	return nil
}
