package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// LiveSessionRepository handles database operations for live sessions.
// Student progress and the leaderboard are document-shaped and change as a
// unit per update, so they are stored as JSON columns rather than rows.
type LiveSessionRepository struct {
	db *database.DB
}

// NewLiveSessionRepository creates a new live session repository
func NewLiveSessionRepository(db *database.DB) *LiveSessionRepository {
	return &LiveSessionRepository{db: db}
}

// Create inserts a session, replacing any earlier session for the same room
// code so a restarted activity begins from a clean slate.
func (r *LiveSessionRepository) Create(s *models.LiveSession) error {
	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	progress, err := json.Marshal(s.StudentProgress)
	if err != nil {
		return fmt.Errorf("failed to encode student progress: %w", err)
	}
	leaderboard, err := json.Marshal(s.Leaderboard)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	if _, err := r.db.Exec("DELETE FROM live_sessions WHERE room_code = ?", s.RoomCode); err != nil {
		return err
	}

	query := `
		INSERT INTO live_sessions (room_code, room_id, status, countdown_started_at,
		                           countdown_duration, started_at, module_content, time_limit,
		                           word_count, settings, difficulty, student_progress,
		                           leaderboard, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err = r.db.Exec(query,
		s.RoomCode, s.RoomID, s.Status, s.CountdownStartedAt,
		s.CountdownDuration, s.StartedAt, s.ModuleContent, s.TimeLimit,
		s.WordCount, string(settings), s.Difficulty, string(progress),
		string(leaderboard), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetByCode retrieves a session by room code. Returns nil when absent.
func (r *LiveSessionRepository) GetByCode(roomCode string) (*models.LiveSession, error) {
	query := `
		SELECT room_code, room_id, status, countdown_started_at, countdown_duration,
		       started_at, module_content, time_limit, word_count, settings,
		       difficulty, student_progress, leaderboard, created_at, updated_at
		FROM live_sessions
		WHERE room_code = ?
	`
	s := &models.LiveSession{}
	var startedAt sql.NullTime
	var settings, progress, leaderboard string

	err := r.db.QueryRow(query, roomCode).Scan(
		&s.RoomCode, &s.RoomID, &s.Status, &s.CountdownStartedAt, &s.CountdownDuration,
		&startedAt, &s.ModuleContent, &s.TimeLimit, &s.WordCount, &settings,
		&s.Difficulty, &progress, &leaderboard, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}

	if err := json.Unmarshal([]byte(settings), &s.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for %s: %w", roomCode, err)
	}
	if err := json.Unmarshal([]byte(progress), &s.StudentProgress); err != nil {
		return nil, fmt.Errorf("failed to decode student progress for %s: %w", roomCode, err)
	}
	if err := json.Unmarshal([]byte(leaderboard), &s.Leaderboard); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard for %s: %w", roomCode, err)
	}
	if s.StudentProgress == nil {
		s.StudentProgress = make(map[string]models.StudentProgress)
	}

	return s, nil
}

// ActivateIfCountdown atomically moves a session from countdown to active.
// Returns false when the session was no longer in countdown, which covers
// both a manual end racing the timer and a timer firing twice.
func (r *LiveSessionRepository) ActivateIfCountdown(roomCode string, startedAt time.Time) (bool, error) {
	query := `
		UPDATE live_sessions
		SET status = ?, started_at = ?, updated_at = ?
		WHERE room_code = ? AND status = ?
	`
	result, err := r.db.Exec(query,
		models.SessionStatusActive, startedAt, time.Now().UTC(),
		roomCode, models.SessionStatusCountdown,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Complete marks a session completed
func (r *LiveSessionRepository) Complete(roomCode string) error {
	query := "UPDATE live_sessions SET status = ?, updated_at = ? WHERE room_code = ?"
	_, err := r.db.Exec(query, models.SessionStatusCompleted, time.Now().UTC(), roomCode)
	return err
}

// SaveProgress writes the full progress map and recomputed leaderboard
func (r *LiveSessionRepository) SaveProgress(roomCode string, progress map[string]models.StudentProgress, leaderboard []models.LeaderboardEntry) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode student progress: %w", err)
	}
	leaderboardJSON, err := json.Marshal(leaderboard)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	query := "UPDATE live_sessions SET student_progress = ?, leaderboard = ?, updated_at = ? WHERE room_code = ?"
	_, err = r.db.Exec(query, string(progressJSON), string(leaderboardJSON), time.Now().UTC(), roomCode)
	return err
}

// DeleteByRoomCode removes a session, used when its room is deleted
func (r *LiveSessionRepository) DeleteByRoomCode(roomCode string) error {
	_, err := r.db.Exec("DELETE FROM live_sessions WHERE room_code = ?", roomCode)
	return err
}
