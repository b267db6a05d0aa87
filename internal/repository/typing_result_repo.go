package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// TypingResultRepository handles database operations for typing results.
// Results are append-only; nothing here updates performance numbers after
// the fact.
type TypingResultRepository struct {
	db *database.DB
}

// NewTypingResultRepository creates a new typing result repository
func NewTypingResultRepository(db *database.DB) *TypingResultRepository {
	return &TypingResultRepository{db: db}
}

// Save inserts a typing result
func (r *TypingResultRepository) Save(result *models.TypingResult) error {
	keystrokes, err := json.Marshal(result.Keystrokes)
	if err != nil {
		return fmt.Errorf("failed to encode keystroke data: %w", err)
	}

	var commonErrors sql.NullString
	if len(result.CommonErrors) > 0 {
		encoded, err := json.Marshal(result.CommonErrors)
		if err != nil {
			return fmt.Errorf("failed to encode common errors: %w", err)
		}
		commonErrors = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `
		INSERT INTO typing_results (id, user_id, user_name, user_email, user_type, session_type,
		                            room_id, wpm, accuracy, duration, words_typed, errors_count,
		                            keystroke_data, content_topic, content_difficulty,
		                            content_text_length, common_errors, recorded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result.CreatedAt = now

	_, err = r.db.Exec(query,
		result.ID, result.UserID, result.UserName, result.UserEmail, result.UserType,
		result.SessionType, result.RoomID, result.WPM, result.Accuracy, result.Duration,
		result.WordsTyped, result.ErrorsCount, string(keystrokes), result.Content.Topic,
		result.Content.Difficulty, result.Content.TextLength, commonErrors,
		result.Timestamp, result.CreatedAt, now,
	)
	return err
}

const resultColumns = `id, user_id, user_name, user_email, user_type, session_type,
       COALESCE(room_id, ''), wpm, accuracy, duration, words_typed, errors_count,
       keystroke_data, content_topic, content_difficulty, content_text_length,
       common_errors, recorded_at, created_at`

func scanResult(scan func(dest ...interface{}) error) (*models.TypingResult, error) {
	result := &models.TypingResult{}
	var keystrokes string
	var commonErrors sql.NullString

	err := scan(
		&result.ID, &result.UserID, &result.UserName, &result.UserEmail, &result.UserType,
		&result.SessionType, &result.RoomID, &result.WPM, &result.Accuracy, &result.Duration,
		&result.WordsTyped, &result.ErrorsCount, &keystrokes, &result.Content.Topic,
		&result.Content.Difficulty, &result.Content.TextLength, &commonErrors,
		&result.Timestamp, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keystrokes), &result.Keystrokes); err != nil {
		return nil, fmt.Errorf("failed to decode keystroke data for %s: %w", result.ID, err)
	}
	if commonErrors.Valid {
		if err := json.Unmarshal([]byte(commonErrors.String), &result.CommonErrors); err != nil {
			return nil, fmt.Errorf("failed to decode common errors for %s: %w", result.ID, err)
		}
	}

	return result, nil
}

func (r *TypingResultRepository) queryResults(query string, args ...interface{}) ([]models.TypingResult, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.TypingResult
	for rows.Next() {
		result, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	return results, rows.Err()
}

// ResultFilter narrows a user's result history
type ResultFilter struct {
	SessionType string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// ListByUser retrieves a user's results, newest first
func (r *TypingResultRepository) ListByUser(userID string, filter ResultFilter) ([]models.TypingResult, error) {
	query := "SELECT " + resultColumns + " FROM typing_results WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.SessionType != "" {
		query += " AND session_type = ?"
		args = append(args, filter.SessionType)
	}
	if !filter.Since.IsZero() {
		query += " AND recorded_at >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND recorded_at < ?"
		args = append(args, filter.Until)
	}
	query += " ORDER BY recorded_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.queryResults(query, args...)
}

// ListByEmail retrieves results by the email recorded on the result, newest
// first. Used for cross-device lookups where the user id differs.
func (r *TypingResultRepository) ListByEmail(email string, filter ResultFilter) ([]models.TypingResult, error) {
	query := "SELECT " + resultColumns + " FROM typing_results WHERE user_email = ?"
	args := []interface{}{email}

	if filter.SessionType != "" {
		query += " AND session_type = ?"
		args = append(args, filter.SessionType)
	}
	if !filter.Since.IsZero() {
		query += " AND recorded_at >= ?"
		args = append(args, filter.Since)
	}
	query += " ORDER BY recorded_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.queryResults(query, args...)
}

// ListBetween retrieves all results recorded within [start, end), oldest
// first. Feeds the monthly top-WPM board.
func (r *TypingResultRepository) ListBetween(start, end time.Time) ([]models.TypingResult, error) {
	query := "SELECT " + resultColumns + ` FROM typing_results
		WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC`
	return r.queryResults(query, start, end)
}

// ListRoomResultsMissingContent retrieves room-session results whose content
// metadata was never stamped, for the backfill tool.
func (r *TypingResultRepository) ListRoomResultsMissingContent() ([]models.TypingResult, error) {
	query := "SELECT " + resultColumns + ` FROM typing_results
		WHERE session_type = ? AND room_id IS NOT NULL AND room_id != ''
		  AND (content_topic = '' OR content_difficulty = '')
		ORDER BY recorded_at ASC`
	return r.queryResults(query, models.SessionTypeRoom)
}

// UpdateContent rewrites a result's content metadata. Only the backfill tool
// calls this; performance numbers stay immutable.
func (r *TypingResultRepository) UpdateContent(id, topic, difficulty string) error {
	query := "UPDATE typing_results SET content_topic = ?, content_difficulty = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, topic, difficulty, time.Now().UTC(), id)
	return err
}
