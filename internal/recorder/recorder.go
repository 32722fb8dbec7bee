// Package recorder drives the microphone capture state machine and hands
// finalized artifacts to the processing backend.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// ErrMicrophoneUnavailable is reported when the capture device cannot be
// opened; the controller stays idle.
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

// State of the recording controller.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Controller accumulates audio chunks from a capture device into one WAV
// artifact, bounded by a maximum duration, and uploads it at most once.
// The Recording -> Stopped transition is guarded so the timer-driven
// auto-stop and a manual stop collapse into the same single transition.
type Controller struct {
	device  CaptureDevice
	backend backend.Backend

	// Maximum recording length; the 1-second timer forces a stop when
	// elapsed time reaches it.
	maxDuration time.Duration

	mu         sync.Mutex
	state      State
	starting   bool
	stream     CaptureStream
	chunks     [][]byte
	artifact   []byte
	uploaded   bool
	elapsed    int
	timerStop  chan struct{}
	collecting chan struct{}
}

func New(device CaptureDevice, b backend.Backend, maxSeconds int) *Controller {
	if maxSeconds <= 0 {
		maxSeconds = 60
	}
	return &Controller{
		device:      device,
		backend:     b,
		maxDuration: time.Duration(maxSeconds) * time.Second,
	}
}

// StartRecording opens the capture device and begins accumulating chunks.
// Any previously finalized artifact, preview and upload state is discarded.
// A denied or missing device leaves the controller idle.
func (c *Controller) StartRecording(ctx context.Context) error {
	// The starting flag stays held across the device call so a second
	// StartRecording cannot slip past the guard and orphan a stream.
	c.mu.Lock()
	if c.state == StateRecording || c.starting {
		c.mu.Unlock()
		return fmt.Errorf("already recording")
	}
	c.starting = true
	c.mu.Unlock()

	stream, err := c.device.Start(ctx)
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	c.mu.Lock()
	c.starting = false
	c.state = StateRecording
	c.stream = stream
	c.chunks = nil
	c.artifact = nil
	c.uploaded = false
	c.elapsed = 0
	c.timerStop = make(chan struct{})
	c.collecting = make(chan struct{})
	timerStop := c.timerStop
	collecting := c.collecting
	c.mu.Unlock()

	go c.collect(stream, collecting)
	go c.runTimer(timerStop)
	return nil
}

// StopRecording finalizes the artifact and releases the microphone. Calling
// it while not recording is a no-op, which makes the auto-stop and a manual
// stop indistinguishable downstream.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.state = StateStopped
	stream := c.stream
	c.stream = nil
	close(c.timerStop)
	collecting := c.collecting
	c.mu.Unlock()

	// Release the device; the chunk channel closes and the collector
	// drains whatever is left.
	stream.Stop()
	<-collecting

	c.mu.Lock()
	defer c.mu.Unlock()
	size := 0
	for _, chunk := range c.chunks {
		size += len(chunk)
	}
	artifact := make([]byte, 0, size)
	for _, chunk := range c.chunks {
		artifact = append(artifact, chunk...)
	}
	c.artifact = artifact
	c.chunks = nil
}

// Upload hands the finalized artifact to the backend. It refuses to run
// without an artifact or after a successful upload of the same artifact;
// a failed upload keeps the artifact so the caller can retry.
func (c *Controller) Upload(ctx context.Context) (models.ProcessingItem, error) {
	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		return models.ProcessingItem{}, fmt.Errorf("still recording")
	}
	if c.artifact == nil {
		c.mu.Unlock()
		return models.ProcessingItem{}, fmt.Errorf("nothing recorded yet")
	}
	if c.uploaded {
		c.mu.Unlock()
		return models.ProcessingItem{}, fmt.Errorf("recording already uploaded")
	}
	artifact := c.artifact
	c.mu.Unlock()

	item, err := c.backend.UploadAudio(ctx, artifact)
	if err != nil {
		return models.ProcessingItem{}, err
	}

	c.mu.Lock()
	c.uploaded = true
	c.mu.Unlock()
	return item, nil
}

// State returns the current state of the state machine.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed returns the recorded seconds of the current or last session.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Uploaded reports whether the current artifact was already uploaded.
func (c *Controller) Uploaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploaded
}

// Artifact returns a copy of the finalized audio, nil while none exists.
func (c *Controller) Artifact() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact == nil {
		return nil
	}
	out := make([]byte, len(c.artifact))
	copy(out, c.artifact)
	return out
}

// SavePreview writes the finalized artifact to a WAV file for playback.
func (c *Controller) SavePreview(path string) error {
	artifact := c.Artifact()
	if artifact == nil {
		return fmt.Errorf("nothing recorded yet")
	}
	return os.WriteFile(path, artifact, 0644)
}

func (c *Controller) collect(stream CaptureStream, done chan struct{}) {
	defer close(done)
	for chunk := range stream.Chunks() {
		c.mu.Lock()
		c.chunks = append(c.chunks, chunk)
		c.mu.Unlock()
	}
}

func (c *Controller) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	limit := int(c.maxDuration / time.Second)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state != StateRecording {
				c.mu.Unlock()
				return
			}
			c.elapsed++
			reached := c.elapsed >= limit
			c.mu.Unlock()
			if reached {
				c.StopRecording()
				return
			}
		}
	}
}
