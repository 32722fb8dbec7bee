package recorder_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/models"
	"github.com/tomtuamnuq/speak2see-go/internal/recorder"
)

// fakeDevice hands out scripted chunk streams so tests control exactly what
// audio the controller sees.
type fakeDevice struct {
	chunks  [][]byte
	failure error
	streams []*fakeStream
}

func (d *fakeDevice) Start(ctx context.Context) (recorder.CaptureStream, error) {
	if d.failure != nil {
		return nil, d.failure
	}
	s := &fakeStream{chunks: make(chan []byte, len(d.chunks)+1)}
	for _, c := range d.chunks {
		s.chunks <- c
	}
	d.streams = append(d.streams, s)
	return s, nil
}

type fakeStream struct {
	chunks  chan []byte
	stopped bool
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) Stop() error {
	if !s.stopped {
		s.stopped = true
		close(s.chunks)
	}
	return nil
}

// slowDevice blocks inside Start until the grant channel is closed,
// modelling a permission prompt that has not been answered yet.
type slowDevice struct {
	entered    chan struct{}
	grant      chan struct{}
	startCalls atomic.Int32
}

func (d *slowDevice) Start(ctx context.Context) (recorder.CaptureStream, error) {
	d.startCalls.Add(1)
	close(d.entered)
	<-d.grant
	return &fakeStream{chunks: make(chan []byte, 1)}, nil
}

type fakeUploader struct {
	uploads [][]byte
	failure error
	item    models.ProcessingItem
}

func (f *fakeUploader) UploadAudio(ctx context.Context, audio []byte) (models.ProcessingItem, error) {
	if f.failure != nil {
		return models.ProcessingItem{}, f.failure
	}
	f.uploads = append(f.uploads, audio)
	return f.item, nil
}

func (f *fakeUploader) GetAllItems(ctx context.Context) ([]models.ProcessingItem, error) {
	return nil, nil
}

func (f *fakeUploader) GetItemDetails(ctx context.Context, id string) (models.ItemDetails, error) {
	return models.ItemDetails{}, nil
}

func TestRecordingLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("collects chunks into one artifact", func(t *testing.T) {
		device := &fakeDevice{chunks: [][]byte{[]byte("RIFF"), []byte("data")}}
		ctl := recorder.New(device, &fakeUploader{}, 60)

		if ctl.State() != recorder.StateIdle {
			t.Fatalf("expected idle, got %s", ctl.State())
		}
		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("StartRecording failed: %v", err)
		}
		if ctl.State() != recorder.StateRecording {
			t.Fatalf("expected recording, got %s", ctl.State())
		}

		ctl.StopRecording()
		if ctl.State() != recorder.StateStopped {
			t.Fatalf("expected stopped, got %s", ctl.State())
		}
		if got := ctl.Artifact(); !bytes.Equal(got, []byte("RIFFdata")) {
			t.Errorf("artifact = %q, want %q", got, "RIFFdata")
		}
		if !device.streams[0].stopped {
			t.Error("the capture stream was not released")
		}
	})

	t.Run("stop while idle is a no-op", func(t *testing.T) {
		ctl := recorder.New(&fakeDevice{}, &fakeUploader{}, 60)
		ctl.StopRecording()
		if ctl.State() != recorder.StateIdle {
			t.Errorf("expected idle, got %s", ctl.State())
		}
	})

	t.Run("starting again while recording fails", func(t *testing.T) {
		device := &fakeDevice{}
		ctl := recorder.New(device, &fakeUploader{}, 60)
		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("StartRecording failed: %v", err)
		}
		defer ctl.StopRecording()
		if err := ctl.StartRecording(ctx); err == nil {
			t.Error("expected an error starting a second recording")
		}
	})

	t.Run("new recording discards the previous artifact", func(t *testing.T) {
		device := &fakeDevice{chunks: [][]byte{[]byte("first")}}
		uploader := &fakeUploader{}
		ctl := recorder.New(device, uploader, 60)

		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("StartRecording failed: %v", err)
		}
		ctl.StopRecording()
		if _, err := ctl.Upload(ctx); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}

		device.chunks = [][]byte{[]byte("second")}
		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("second StartRecording failed: %v", err)
		}
		if ctl.Uploaded() {
			t.Error("starting a new recording must clear the uploaded flag")
		}
		if ctl.Artifact() != nil {
			t.Error("starting a new recording must discard the old artifact")
		}
		ctl.StopRecording()
		if got := ctl.Artifact(); !bytes.Equal(got, []byte("second")) {
			t.Errorf("artifact = %q, want %q", got, "second")
		}
	})

	t.Run("start during a pending device grant fails", func(t *testing.T) {
		// A device whose grant takes a while, like a user staring at a
		// permission prompt.
		device := &slowDevice{entered: make(chan struct{}), grant: make(chan struct{})}
		ctl := recorder.New(device, &fakeUploader{}, 60)

		firstDone := make(chan error, 1)
		go func() { firstDone <- ctl.StartRecording(ctx) }()
		<-device.entered

		// The first start holds the microphone claim even though the grant
		// is still pending; a second start must not open a second stream.
		if err := ctl.StartRecording(ctx); err == nil {
			t.Error("expected an error starting while another start is pending")
		}

		close(device.grant)
		if err := <-firstDone; err != nil {
			t.Fatalf("pending StartRecording failed: %v", err)
		}
		if got := device.startCalls.Load(); got != 1 {
			t.Errorf("device opened %d times, want 1", got)
		}
		ctl.StopRecording()
	})

	t.Run("denied microphone stays idle", func(t *testing.T) {
		device := &fakeDevice{failure: errors.New("permission denied")}
		ctl := recorder.New(device, &fakeUploader{}, 60)

		err := ctl.StartRecording(ctx)
		if !errors.Is(err, recorder.ErrMicrophoneUnavailable) {
			t.Fatalf("expected ErrMicrophoneUnavailable, got %v", err)
		}
		if ctl.State() != recorder.StateIdle {
			t.Errorf("controller must stay idle, got %s", ctl.State())
		}
	})
}

func TestAutoStop(t *testing.T) {
	device := &fakeDevice{chunks: [][]byte{[]byte("audio")}}
	uploader := &fakeUploader{item: models.ProcessingItem{ID: "auto", ProcessingStatus: models.StatusInProgress}}
	ctl := recorder.New(device, uploader, 1)

	if err := ctl.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	// The 1-second timer must force the stop without any manual call.
	deadline := time.After(3 * time.Second)
	for ctl.State() == recorder.StateRecording {
		select {
		case <-deadline:
			t.Fatal("controller did not auto-stop at the duration limit")
		case <-time.After(50 * time.Millisecond):
		}
	}

	if ctl.State() != recorder.StateStopped {
		t.Fatalf("expected stopped, got %s", ctl.State())
	}
	if ctl.Elapsed() != 1 {
		t.Errorf("elapsed = %d, want 1", ctl.Elapsed())
	}

	// The auto-stopped artifact uploads exactly like a manually stopped one.
	item, err := ctl.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload after auto-stop failed: %v", err)
	}
	if item.ID != "auto" {
		t.Errorf("item id = %q, want %q", item.ID, "auto")
	}
	if !bytes.Equal(uploader.uploads[0], []byte("audio")) {
		t.Errorf("uploaded audio = %q, want %q", uploader.uploads[0], "audio")
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	record := func(t *testing.T, uploader *fakeUploader) *recorder.Controller {
		t.Helper()
		device := &fakeDevice{chunks: [][]byte{[]byte("wav")}}
		ctl := recorder.New(device, uploader, 60)
		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("StartRecording failed: %v", err)
		}
		ctl.StopRecording()
		return ctl
	}

	t.Run("refuses while recording", func(t *testing.T) {
		ctl := recorder.New(&fakeDevice{}, &fakeUploader{}, 60)
		if err := ctl.StartRecording(ctx); err != nil {
			t.Fatalf("StartRecording failed: %v", err)
		}
		defer ctl.StopRecording()
		if _, err := ctl.Upload(ctx); err == nil {
			t.Error("expected an error uploading while recording")
		}
	})

	t.Run("refuses without an artifact", func(t *testing.T) {
		ctl := recorder.New(&fakeDevice{}, &fakeUploader{}, 60)
		if _, err := ctl.Upload(ctx); err == nil {
			t.Error("expected an error uploading before recording")
		}
	})

	t.Run("uploads at most once", func(t *testing.T) {
		uploader := &fakeUploader{}
		ctl := record(t, uploader)
		if _, err := ctl.Upload(ctx); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if _, err := ctl.Upload(ctx); err == nil {
			t.Error("expected an error re-uploading the same artifact")
		}
		if len(uploader.uploads) != 1 {
			t.Errorf("expected exactly 1 upload, got %d", len(uploader.uploads))
		}
	})

	t.Run("failed upload can be retried", func(t *testing.T) {
		uploader := &fakeUploader{failure: errors.New("server down")}
		ctl := record(t, uploader)
		if _, err := ctl.Upload(ctx); err == nil {
			t.Fatal("expected the first upload to fail")
		}
		if ctl.Uploaded() {
			t.Error("a failed upload must not mark the artifact uploaded")
		}

		uploader.failure = nil
		if _, err := ctl.Upload(ctx); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if !ctl.Uploaded() {
			t.Error("the retried upload should mark the artifact uploaded")
		}
	})
}
