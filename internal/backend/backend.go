// Package backend defines the contract between the client and the remote
// processing service. Two interchangeable implementations exist: httpapi
// talks to the real service, mockapi is a deterministic stand-in for
// development and testing. The implementation is chosen once at
// construction time, never per call.
package backend

import (
	"context"
	"fmt"

	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// DefaultMaxUploadBytes is the audio size ceiling enforced before any
// network call is made.
const DefaultMaxUploadBytes int64 = 3 * 1024 * 1024

// TokenSource supplies the bearer credential for authenticated calls.
// Every backend operation passes through it and fails fast with
// ErrUnauthenticated when no token is held.
type TokenSource interface {
	AuthorizationHeader() (string, error)
}

// Backend is the sole network boundary of the client. It turns domain calls
// into authenticated requests and typed responses.
type Backend interface {
	// UploadAudio submits a finalized WAV artifact and returns the newly
	// created item, typically still IN_PROGRESS.
	UploadAudio(ctx context.Context, audio []byte) (models.ProcessingItem, error)
	// GetAllItems returns the full current set of items for the
	// authenticated principal.
	GetAllItems(ctx context.Context) ([]models.ProcessingItem, error)
	// GetItemDetails fetches the enriched fields for one item. The result
	// may represent any completion state.
	GetItemDetails(ctx context.Context, id string) (models.ItemDetails, error)
}

// CheckPayloadSize rejects artifacts above the ceiling before they reach
// the network.
func CheckPayloadSize(size int, max int64) error {
	if int64(size) > max {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrPayloadTooLarge, size, max)
	}
	return nil
}
