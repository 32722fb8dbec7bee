package models

// ProgressUpdate is broadcast over the websocket hub whenever the processing
// pipeline advances an item.
type ProgressUpdate struct {
	ItemID  string           `json:"itemId"`
	Message string           `json:"message"`
	Status  ProcessingStatus `json:"status"`
	Done    bool             `json:"done"`
}
