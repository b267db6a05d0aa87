package repository

import (
	"database/sql"
	"fmt"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// RoomRepository handles database operations for rooms and their membership
type RoomRepository struct {
	db *database.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room in waiting status
func (r *RoomRepository) Create(room *models.Room) error {
	query := `
		INSERT INTO rooms (id, room_code, activity_name, section, year_level, mode, room_type,
		                   duration, word_count, module, difficulty_level, teacher_id, teacher_name,
		                   status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := r.db.Exec(query,
		room.ID, room.RoomCode, room.ActivityName, room.Section, room.YearLevel,
		room.Mode, room.RoomType, room.Duration, room.WordCount, room.Module,
		room.DifficultyLevel, room.TeacherID, room.TeacherName, room.Status,
		room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

const roomColumns = `id, room_code, activity_name, section, year_level, mode, room_type,
       duration, word_count, module, difficulty_level, teacher_id, teacher_name, status,
       live_is_active, live_started_at, live_countdown_started_at, live_countdown_duration,
       live_module_content, live_time_limit, created_at, updated_at`

func (r *RoomRepository) scanRoom(scan func(dest ...interface{}) error) (*models.Room, error) {
	room := &models.Room{}
	var duration, wordCount sql.NullInt64
	var liveStarted, liveCountdownStarted sql.NullTime

	err := scan(
		&room.ID, &room.RoomCode, &room.ActivityName, &room.Section, &room.YearLevel,
		&room.Mode, &room.RoomType, &duration, &wordCount, &room.Module,
		&room.DifficultyLevel, &room.TeacherID, &room.TeacherName, &room.Status,
		&room.LiveActivity.IsActive, &liveStarted, &liveCountdownStarted,
		&room.LiveActivity.CountdownDuration, &room.LiveActivity.ModuleContent,
		&room.LiveActivity.TimeLimit, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if duration.Valid {
		d := int(duration.Int64)
		room.Duration = &d
	}
	if wordCount.Valid {
		wc := int(wordCount.Int64)
		room.WordCount = &wc
	}
	if liveStarted.Valid {
		room.LiveActivity.StartedAt = &liveStarted.Time
	}
	if liveCountdownStarted.Valid {
		room.LiveActivity.CountdownStartedAt = &liveCountdownStarted.Time
	}

	return room, nil
}

// GetByCode retrieves a room with its membership by room code. Returns nil
// when no room matches.
func (r *RoomRepository) GetByCode(roomCode string) (*models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE room_code = ?"
	room, err := r.scanRoom(r.db.QueryRow(query, roomCode).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	members, err := r.GetStudents(room.ID)
	if err != nil {
		return nil, err
	}
	room.StudentsJoined = members

	return room, nil
}

// GetByID retrieves a room without its membership. Returns nil when absent.
func (r *RoomRepository) GetByID(id string) (*models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE id = ?"
	room, err := r.scanRoom(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return room, err
}

// List retrieves rooms, newest first, optionally filtered by teacher and status
func (r *RoomRepository) List(teacherID, status string) ([]models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE 1=1"
	var args []interface{}

	if teacherID != "" {
		query += " AND teacher_id = ?"
		args = append(args, teacherID)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := r.scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		members, err := r.GetStudents(room.ID)
		if err != nil {
			return nil, err
		}
		room.StudentsJoined = members
		rooms = append(rooms, *room)
	}

	return rooms, rows.Err()
}

// ListCreatedSince retrieves rooms created after the cutoff, newest first
func (r *RoomRepository) ListCreatedSince(cutoff time.Time, limit int) ([]models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE created_at >= ? ORDER BY created_at DESC LIMIT ?"

	rows, err := r.db.Query(query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := r.scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		members, err := r.GetStudents(room.ID)
		if err != nil {
			return nil, err
		}
		room.StudentsJoined = members
		rooms = append(rooms, *room)
	}

	return rooms, rows.Err()
}

// UpdateStatus sets a room's lifecycle status
func (r *RoomRepository) UpdateStatus(roomID, status string) error {
	query := "UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, time.Now().UTC(), roomID)
	return err
}

// StartLiveActivity flips the room to active with its live-activity flags set
func (r *RoomRepository) StartLiveActivity(roomID string, la models.LiveActivity) error {
	query := `
		UPDATE rooms
		SET status = ?, live_is_active = ?, live_started_at = ?, live_countdown_started_at = ?,
		    live_countdown_duration = ?, live_module_content = ?, live_time_limit = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		models.RoomStatusActive, la.IsActive, la.StartedAt, la.CountdownStartedAt,
		la.CountdownDuration, la.ModuleContent, la.TimeLimit, time.Now().UTC(), roomID,
	)
	return err
}

// EndLiveActivity marks the room completed and clears the active flag
func (r *RoomRepository) EndLiveActivity(roomID string) error {
	query := "UPDATE rooms SET status = ?, live_is_active = 0, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, models.RoomStatusCompleted, time.Now().UTC(), roomID)
	return err
}

// Delete removes a room; membership rows cascade via the foreign key
func (r *RoomRepository) Delete(roomID string) error {
	_, err := r.db.Exec("DELETE FROM rooms WHERE id = ?", roomID)
	return err
}

// CodeExists reports whether any room already uses the code
func (r *RoomRepository) CodeExists(roomCode string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM rooms WHERE room_code = ?", roomCode).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddStudent appends a membership row
func (r *RoomRepository) AddStudent(m *models.Membership) error {
	query := `
		INSERT INTO room_students (room_id, student_id, student_name, email, year_level, section,
		                           joined_at, status, wpm, accuracy, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		m.RoomID, m.StudentID, m.StudentName, m.Email, m.YearLevel, m.Section,
		m.JoinedAt, m.Status, m.WPM, m.Accuracy, m.Progress,
	)
	return err
}

// GetStudent retrieves one membership row. Returns nil when absent.
func (r *RoomRepository) GetStudent(roomID, studentID string) (*models.Membership, error) {
	query := `
		SELECT room_id, student_id, student_name, COALESCE(email, ''), COALESCE(year_level, ''),
		       COALESCE(section, ''), joined_at, status, wpm, accuracy, progress, last_updated
		FROM room_students
		WHERE room_id = ? AND student_id = ?
	`
	m := &models.Membership{}
	var lastUpdated sql.NullTime
	err := r.db.QueryRow(query, roomID, studentID).Scan(
		&m.RoomID, &m.StudentID, &m.StudentName, &m.Email, &m.YearLevel, &m.Section,
		&m.JoinedAt, &m.Status, &m.WPM, &m.Accuracy, &m.Progress, &lastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		m.LastUpdated = &lastUpdated.Time
	}
	return m, nil
}

// GetStudents retrieves all membership rows for a room, oldest join first
func (r *RoomRepository) GetStudents(roomID string) ([]models.Membership, error) {
	query := `
		SELECT room_id, student_id, student_name, COALESCE(email, ''), COALESCE(year_level, ''),
		       COALESCE(section, ''), joined_at, status, wpm, accuracy, progress, last_updated
		FROM room_students
		WHERE room_id = ?
		ORDER BY joined_at ASC
	`
	rows, err := r.db.Query(query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		var lastUpdated sql.NullTime
		err := rows.Scan(
			&m.RoomID, &m.StudentID, &m.StudentName, &m.Email, &m.YearLevel, &m.Section,
			&m.JoinedAt, &m.Status, &m.WPM, &m.Accuracy, &m.Progress, &lastUpdated,
		)
		if err != nil {
			return nil, err
		}
		if lastUpdated.Valid {
			m.LastUpdated = &lastUpdated.Time
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// UpdateStudent mirrors live progress into the membership row
func (r *RoomRepository) UpdateStudent(m *models.Membership) error {
	query := `
		UPDATE room_students
		SET student_name = ?, status = ?, wpm = ?, accuracy = ?, progress = ?, last_updated = ?
		WHERE room_id = ? AND student_id = ?
	`
	_, err := r.db.Exec(query,
		m.StudentName, m.Status, m.WPM, m.Accuracy, m.Progress, time.Now().UTC(),
		m.RoomID, m.StudentID,
	)
	return err
}

// RemoveStudent deletes a membership row
func (r *RoomRepository) RemoveStudent(roomID, studentID string) error {
	_, err := r.db.Exec("DELETE FROM room_students WHERE room_id = ? AND student_id = ?", roomID, studentID)
	return err
}
