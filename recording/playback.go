// ABOUTME: Audio playback for recorded answers via an ffplay subprocess
// ABOUTME: One playback per controller; starting another stops the previous one
package recording

import (
	"fmt"
	"os/exec"
	"sync"
)

// Player starts playback of a local audio file.
type Player interface {
	Play(path string) (Playback, error)
}

// Playback is one running playback. Done closes when it ends on its own or is stopped.
type Playback interface {
	Stop() error
	Done() <-chan struct{}
}

// FFplayPlayer plays audio through ffplay without opening a window.
type FFplayPlayer struct {
	Binary string
}

func (p FFplayPlayer) Play(path string) (Playback, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffplay"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrPlaybackUnavailable, bin)
	}

	cmd := exec.Command(bin, "-nodisp", "-autoexit", "-loglevel", "quiet", path)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	pb := &processPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type processPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (p *processPlayback) Done() <-chan struct{} { return p.done }

func (p *processPlayback) Stop() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		err = p.cmd.Process.Kill()
		<-p.done
	})
	return err
}

// TogglePlayback plays the bound answer's audio, or stops it if it is playing.
func (c *Controller) TogglePlayback() error {
	c.mu.Lock()
	if c.playback != nil {
		c.mu.Unlock()
		c.stopPlayback()
		return nil
	}
	binding := c.binding
	c.mu.Unlock()

	if c.player == nil {
		return ErrPlaybackUnavailable
	}

	p := binding.Current()
	if p.Locator == "" {
		return ErrNothingToPlay
	}
	path, ok := c.library.Resolve(p.Locator)
	if !ok {
		return ErrNothingToPlay
	}

	pb, err := c.player.Play(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.playback != nil {
		// Someone else started playback meanwhile; keep only the newest.
		old := c.playback
		c.mu.Unlock()
		_ = old.Stop()
		c.mu.Lock()
	}
	c.playback = pb
	c.mu.Unlock()
	c.notify()

	go func() {
		<-pb.Done()
		c.mu.Lock()
		if c.playback == pb {
			c.playback = nil
		}
		c.mu.Unlock()
		c.notify()
	}()
	return nil
}

func (c *Controller) stopPlayback() {
	c.mu.Lock()
	pb := c.playback
	c.playback = nil
	c.mu.Unlock()

	if pb == nil {
		return
	}
	if err := pb.Stop(); err != nil {
		c.logger.Debug("stopping playback failed", "err", err)
	}
	c.notify()
}

func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback != nil
}
