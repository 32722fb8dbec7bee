package mockapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/backend/mockapi"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

type staticTokens struct{ token string }

func (s staticTokens) AuthorizationHeader() (string, error) {
	if s.token == "" {
		return "", backend.ErrUnauthenticated
	}
	return "Bearer " + s.token, nil
}

func TestMockUpload(t *testing.T) {
	b := mockapi.New(staticTokens{"tok"}, 0)
	ctx := context.Background()

	first, err := b.UploadAudio(ctx, []byte("wav"))
	if err != nil {
		t.Fatalf("UploadAudio failed: %v", err)
	}
	second, err := b.UploadAudio(ctx, []byte("wav"))
	if err != nil {
		t.Fatalf("UploadAudio failed: %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("uploads must get distinct ids, both were %q", first.ID)
	}
	if first.ProcessingStatus != models.StatusInProgress {
		t.Errorf("fresh uploads start in progress, got %s", first.ProcessingStatus)
	}
}

func TestMockEnforcesContract(t *testing.T) {
	ctx := context.Background()

	t.Run("size ceiling", func(t *testing.T) {
		b := mockapi.New(staticTokens{"tok"}, 4)
		if _, err := b.UploadAudio(ctx, []byte("too large")); !errors.Is(err, backend.ErrPayloadTooLarge) {
			t.Errorf("expected ErrPayloadTooLarge, got %v", err)
		}
	})

	t.Run("token gate", func(t *testing.T) {
		b := mockapi.New(staticTokens{}, 0)
		if _, err := b.UploadAudio(ctx, []byte("wav")); !errors.Is(err, backend.ErrUnauthenticated) {
			t.Errorf("upload: expected ErrUnauthenticated, got %v", err)
		}
		if _, err := b.GetAllItems(ctx); !errors.Is(err, backend.ErrUnauthenticated) {
			t.Errorf("getAll: expected ErrUnauthenticated, got %v", err)
		}
		if _, err := b.GetItemDetails(ctx, mockapi.IDFinished); !errors.Is(err, backend.ErrUnauthenticated) {
			t.Errorf("get: expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestMockItems(t *testing.T) {
	b := mockapi.New(staticTokens{"tok"}, 0)
	ctx := context.Background()

	items, err := b.GetAllItems(ctx)
	if err != nil {
		t.Fatalf("GetAllItems failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected the 4 sentinel items, got %d", len(items))
	}

	statuses := map[string]models.ProcessingStatus{}
	for _, item := range items {
		statuses[item.ID] = item.ProcessingStatus
	}
	want := map[string]models.ProcessingStatus{
		mockapi.IDInProgress:          models.StatusInProgress,
		mockapi.IDFinished:            models.StatusFinished,
		mockapi.IDFailedTranscription: models.StatusFailed,
		mockapi.IDFailedImage:         models.StatusFailed,
	}
	for id, status := range want {
		if statuses[id] != status {
			t.Errorf("item %s: status = %s, want %s", id, statuses[id], status)
		}
	}
}

func TestMockItemDetails(t *testing.T) {
	b := mockapi.New(staticTokens{"tok"}, 0)
	ctx := context.Background()

	t.Run("finished carries the full payload", func(t *testing.T) {
		details, err := b.GetItemDetails(ctx, mockapi.IDFinished)
		if err != nil {
			t.Fatalf("GetItemDetails failed: %v", err)
		}
		if details.ProcessingStatus != models.StatusFinished {
			t.Errorf("status = %s, want FINISHED", details.ProcessingStatus)
		}
		if details.Transcription == nil || details.Prompt == nil || details.Image == nil {
			t.Errorf("finished item should carry transcription, prompt and image: %+v", details)
		}
	})

	t.Run("failed transcription carries nothing downstream", func(t *testing.T) {
		details, err := b.GetItemDetails(ctx, mockapi.IDFailedTranscription)
		if err != nil {
			t.Fatalf("GetItemDetails failed: %v", err)
		}
		if details.ProcessingStatus != models.StatusFailed {
			t.Errorf("status = %s, want FAILED", details.ProcessingStatus)
		}
		if details.Transcription != nil || details.Image != nil {
			t.Errorf("failed transcription must not carry downstream fields: %+v", details)
		}
	})

	t.Run("failed image keeps the transcription", func(t *testing.T) {
		details, err := b.GetItemDetails(ctx, mockapi.IDFailedImage)
		if err != nil {
			t.Fatalf("GetItemDetails failed: %v", err)
		}
		if details.Transcription == nil || details.Prompt == nil {
			t.Errorf("failed image should keep transcription and prompt: %+v", details)
		}
		if details.Image != nil {
			t.Error("failed image must not carry an image")
		}
	})

	t.Run("any other id is in progress", func(t *testing.T) {
		details, err := b.GetItemDetails(ctx, "mock-upload-1")
		if err != nil {
			t.Fatalf("GetItemDetails failed: %v", err)
		}
		if details.ProcessingStatus != models.StatusInProgress {
			t.Errorf("status = %s, want IN_PROGRESS", details.ProcessingStatus)
		}
		if details.Image != nil {
			t.Error("in-progress items have no image yet")
		}
	})
}
