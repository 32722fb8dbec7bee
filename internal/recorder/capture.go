package recorder

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// CaptureDevice grants access to the microphone. Start may fail when the
// device is missing or permission is denied; a granted stream must be
// released with Stop exactly once.
type CaptureDevice interface {
	Start(ctx context.Context) (CaptureStream, error)
}

// CaptureStream delivers raw audio chunks until stopped. The channel is
// closed once the device is released and no more chunks will arrive.
type CaptureStream interface {
	Chunks() <-chan []byte
	Stop() error
}

// ExecDevice captures audio by running an external command (arecord,
// ffmpeg, sox, ...) that writes WAV bytes to stdout until terminated.
type ExecDevice struct {
	// Command and arguments, e.g. ["arecord", "-q", "-t", "wav"].
	Command []string
}

func NewExecDevice(command []string) *ExecDevice {
	return &ExecDevice{Command: command}
}

func (d *ExecDevice) Start(ctx context.Context) (CaptureStream, error) {
	if len(d.Command) == 0 {
		return nil, fmt.Errorf("no capture command configured")
	}

	cmd := exec.CommandContext(ctx, d.Command[0], d.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	stream := &execStream{
		cmd:        cmd,
		chunks:     make(chan []byte),
		readerDone: make(chan struct{}),
	}
	go stream.read(stdout)
	return stream, nil
}

type execStream struct {
	cmd        *exec.Cmd
	chunks     chan []byte
	readerDone chan struct{}
	stopOnce   sync.Once
}

func (s *execStream) Chunks() <-chan []byte {
	return s.chunks
}

// Stop terminates the capture process, releasing the device. The chunk
// channel closes once the reader drains the remaining output. Safe to call
// more than once.
func (s *execStream) Stop() error {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		<-s.readerDone
		// The process was killed on purpose, so the exit status is not
		// meaningful here.
		s.cmd.Wait()
	})
	return nil
}

func (s *execStream) read(stdout io.Reader) {
	defer close(s.readerDone)
	defer close(s.chunks)
	for {
		buf := make([]byte, 4096)
		n, err := stdout.Read(buf)
		if n > 0 {
			s.chunks <- buf[:n]
		}
		if err != nil {
			return
		}
	}
}
