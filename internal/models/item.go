package models

// ProcessingStatus is the lifecycle state of a processing item as reported
// by the backend. The server is the only source of truth for transitions;
// clients observe them by re-fetching.
type ProcessingStatus string

const (
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	StatusFinished   ProcessingStatus = "FINISHED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// Terminal reports whether the status can no longer change on the server.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// ProcessingItem is the list-view summary of one speech-to-image job.
type ProcessingItem struct {
	ID               string           `json:"id"`
	CreatedAt        int64            `json:"createdAt"` // epoch seconds
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
}

// ItemDetails carries the enriched fields for one item. Optional fields are
// pointers so a field absent from a response can be told apart from an empty
// one; partial payloads are normal while an item is still in progress.
type ItemDetails struct {
	Transcription    *string          `json:"transcription,omitempty"`
	Image            *string          `json:"image,omitempty"` // base64 JPEG
	Audio            *string          `json:"audio,omitempty"` // base64 WAV
	Prompt           *string          `json:"prompt,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
}

// GetAllResponse is the wire shape of the list endpoint.
type GetAllResponse struct {
	Items []ProcessingItem `json:"items"`
}

// Item is the client-side merged view of a summary plus any details fetched
// so far. DetailsLoaded tracks whether a detail fetch has completed for this
// id; an in-progress item is treated as stale regardless.
type Item struct {
	ProcessingItem
	Transcription *string `json:"transcription,omitempty"`
	Image         *string `json:"image,omitempty"`
	Audio         *string `json:"audio,omitempty"`
	Prompt        *string `json:"prompt,omitempty"`
	DetailsLoaded bool    `json:"detailsLoaded"`
}

// ApplyDetails merges a detail payload into the item. Fields present in the
// response overwrite, absent fields keep their previous values.
func (it *Item) ApplyDetails(d ItemDetails) {
	if d.Transcription != nil {
		it.Transcription = d.Transcription
	}
	if d.Image != nil {
		it.Image = d.Image
	}
	if d.Audio != nil {
		it.Audio = d.Audio
	}
	if d.Prompt != nil {
		it.Prompt = d.Prompt
	}
	it.ProcessingStatus = d.ProcessingStatus
	it.DetailsLoaded = true
}
