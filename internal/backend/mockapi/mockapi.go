// A mock backend for development and testing purposes. It simulates the
// processing service without making network calls, covering the full status
// space through sentinel item ids.
package mockapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// Sentinel ids addressing the simulated completion states. Any other id
// resolves to the in-progress shape.
const (
	IDFinished            = "mock-finished"
	IDInProgress          = "mock-in-progress"
	IDFailedTranscription = "mock-failed-transcription"
	IDFailedImage         = "mock-failed-image"
)

// A 1x1 white JPEG, stands in for a generated image.
const mockImage = "/9j/4AAQSkZJRgABAQEAYABgAAD/2wBDAAgGBgcGBQgHBwcJCQgKDBQNDAsLDBkSEw8UHRofHh0a" +
	"HBwgJC4nICIsIxwcKDcpLDAxNDQ0Hyc5PTgyPC4zNDL/wAALCAABAAEBAREA/8QAFAABAAAAAAAA" +
	"AAAAAAAAAAAACf/EABQQAQAAAAAAAAAAAAAAAAAAAAD/2gAIAQEAAD8AVN//2Q=="

const mockTranscription = "a lighthouse on a cliff at sunset"
const mockPrompt = "A dramatic oil painting of a lighthouse on a cliff at sunset."

// Backend is the deterministic drop-in substitute for the HTTP client. It
// shares the token gate and error taxonomy so swapping implementations does
// not change observable behavior.
type Backend struct {
	tokens         backend.TokenSource
	maxUploadBytes int64

	mu      sync.Mutex
	uploads int
}

func New(tokens backend.TokenSource, maxUploadBytes int64) *Backend {
	if maxUploadBytes <= 0 {
		maxUploadBytes = backend.DefaultMaxUploadBytes
	}
	return &Backend{tokens: tokens, maxUploadBytes: maxUploadBytes}
}

func (b *Backend) UploadAudio(ctx context.Context, audio []byte) (models.ProcessingItem, error) {
	if err := backend.CheckPayloadSize(len(audio), b.maxUploadBytes); err != nil {
		return models.ProcessingItem{}, err
	}
	if _, err := b.tokens.AuthorizationHeader(); err != nil {
		return models.ProcessingItem{}, err
	}

	b.mu.Lock()
	b.uploads++
	n := b.uploads
	b.mu.Unlock()

	return models.ProcessingItem{
		ID:               fmt.Sprintf("mock-upload-%d", n),
		CreatedAt:        time.Now().Unix(),
		ProcessingStatus: models.StatusInProgress,
	}, nil
}

func (b *Backend) GetAllItems(ctx context.Context) ([]models.ProcessingItem, error) {
	if _, err := b.tokens.AuthorizationHeader(); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return []models.ProcessingItem{
		{ID: IDInProgress, CreatedAt: now - 60, ProcessingStatus: models.StatusInProgress},
		{ID: IDFinished, CreatedAt: now - 3600, ProcessingStatus: models.StatusFinished},
		{ID: IDFailedTranscription, CreatedAt: now - 7200, ProcessingStatus: models.StatusFailed},
		{ID: IDFailedImage, CreatedAt: now - 10800, ProcessingStatus: models.StatusFailed},
	}, nil
}

func (b *Backend) GetItemDetails(ctx context.Context, id string) (models.ItemDetails, error) {
	if _, err := b.tokens.AuthorizationHeader(); err != nil {
		return models.ItemDetails{}, err
	}

	transcription := mockTranscription
	prompt := mockPrompt
	image := mockImage

	switch id {
	case IDFinished:
		return models.ItemDetails{
			Transcription:    &transcription,
			Prompt:           &prompt,
			Image:            &image,
			ProcessingStatus: models.StatusFinished,
		}, nil
	case IDFailedTranscription:
		// Speech-to-text failed; nothing downstream was produced.
		return models.ItemDetails{
			ProcessingStatus: models.StatusFailed,
		}, nil
	case IDFailedImage:
		// Transcription succeeded but image generation failed.
		return models.ItemDetails{
			Transcription:    &transcription,
			Prompt:           &prompt,
			ProcessingStatus: models.StatusFailed,
		}, nil
	default:
		// Still in progress: transcription available, image pending.
		return models.ItemDetails{
			Transcription:    &transcription,
			ProcessingStatus: models.StatusInProgress,
		}, nil
	}
}
