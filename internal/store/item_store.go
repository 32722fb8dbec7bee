package store

import (
	"database/sql"
	"encoding/base64"

	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// CreateItem inserts a freshly uploaded item in IN_PROGRESS state with its
// raw audio payload.
func (s *Store) CreateItem(id string, userID int64, createdAt int64, audio []byte) (*models.ProcessingItem, error) {
	query := "INSERT INTO items (id, user_id, created_at, status, audio) VALUES (?, ?, ?, ?, ?)"
	if _, err := s.db.Exec(query, id, userID, createdAt, string(models.StatusInProgress), audio); err != nil {
		return nil, err
	}
	return &models.ProcessingItem{
		ID:               id,
		CreatedAt:        createdAt,
		ProcessingStatus: models.StatusInProgress,
	}, nil
}

// GetItemsByUser returns list summaries for all items of one user, newest
// first.
func (s *Store) GetItemsByUser(userID int64) ([]models.ProcessingItem, error) {
	rows, err := s.db.Query(
		"SELECT id, created_at, status FROM items WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ProcessingItem, 0)
	for rows.Next() {
		var item models.ProcessingItem
		var status string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &status); err != nil {
			return nil, err
		}
		item.ProcessingStatus = models.ProcessingStatus(status)
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItemDetails returns the detail payload for one item owned by the
// given user. Absent fields stay nil so the response mirrors partial
// completion. The stored audio is returned base64 encoded.
func (s *Store) GetItemDetails(id string, userID int64) (*models.ItemDetails, error) {
	var status string
	var audio []byte
	var transcription, prompt, image sql.NullString
	query := "SELECT status, audio, transcription, prompt, image FROM items WHERE id = ? AND user_id = ?"
	err := s.db.QueryRow(query, id, userID).Scan(&status, &audio, &transcription, &prompt, &image)
	if err != nil {
		return nil, err
	}

	details := &models.ItemDetails{ProcessingStatus: models.ProcessingStatus(status)}
	if len(audio) > 0 {
		encoded := base64.StdEncoding.EncodeToString(audio)
		details.Audio = &encoded
	}
	if transcription.Valid {
		details.Transcription = &transcription.String
	}
	if prompt.Valid {
		details.Prompt = &prompt.String
	}
	if image.Valid {
		details.Image = &image.String
	}
	return details, nil
}

// PendingItem is one queued processing job picked up by the pipeline.
type PendingItem struct {
	ID     string
	UserID int64
	Audio  []byte
}

// NextPendingItems returns up to limit items still in progress, oldest
// first, so the pipeline can work through the backlog in upload order.
func (s *Store) NextPendingItems(limit int) ([]PendingItem, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, audio FROM items WHERE status = ? ORDER BY created_at ASC LIMIT ?",
		string(models.StatusInProgress), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingItem
	for rows.Next() {
		var item PendingItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Audio); err != nil {
			return nil, err
		}
		pending = append(pending, item)
	}
	return pending, rows.Err()
}

// CompleteItem stores the processing results and marks the item finished.
func (s *Store) CompleteItem(id, transcription, prompt, image string) error {
	_, err := s.db.Exec(
		"UPDATE items SET status = ?, transcription = ?, prompt = ?, image = ? WHERE id = ?",
		string(models.StatusFinished), transcription, prompt, image, id)
	return err
}

// FailItem marks the item failed, keeping whatever partial results were
// produced before the failure.
func (s *Store) FailItem(id, reason string, transcription, prompt *string) error {
	_, err := s.db.Exec(
		"UPDATE items SET status = ?, failure_reason = ?, transcription = ?, prompt = ? WHERE id = ?",
		string(models.StatusFailed), reason, transcription, prompt, id)
	return err
}
