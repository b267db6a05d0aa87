package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// ConsultationRepository handles database operations for AI patient
// consultation submissions
type ConsultationRepository struct {
	db *database.DB
}

// NewConsultationRepository creates a new consultation repository
func NewConsultationRepository(db *database.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// Create inserts a consultation submission
func (r *ConsultationRepository) Create(c *models.Consultation) error {
	patientData, err := json.Marshal(c.PatientData)
	if err != nil {
		return fmt.Errorf("failed to encode patient data: %w", err)
	}
	findings, err := json.Marshal(c.Findings)
	if err != nil {
		return fmt.Errorf("failed to encode findings: %w", err)
	}
	recommendations, err := json.Marshal(c.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	conversation, err := json.Marshal(c.Conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	query := `
		INSERT INTO consultations (id, user_id, room_code, student_name, patient_name,
		                           patient_data, findings, recommendations, conversation_history,
		                           submission_type, teacher_feedback, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = r.db.Exec(query,
		c.ID, c.UserID, c.RoomCode, c.StudentName, c.PatientName,
		string(patientData), string(findings), string(recommendations), string(conversation),
		c.SubmissionType, c.TeacherFeedback, c.Score, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

const consultationColumns = `id, user_id, room_code, student_name, patient_name, patient_data,
       findings, recommendations, conversation_history, submission_type,
       teacher_feedback, score, created_at, updated_at`

func scanConsultation(scan func(dest ...interface{}) error) (*models.Consultation, error) {
	c := &models.Consultation{}
	var patientData, findings, recommendations, conversation string
	var feedback sql.NullString
	var score sql.NullFloat64

	err := scan(
		&c.ID, &c.UserID, &c.RoomCode, &c.StudentName, &c.PatientName, &patientData,
		&findings, &recommendations, &conversation, &c.SubmissionType,
		&feedback, &score, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(patientData), &c.PatientData); err != nil {
		return nil, fmt.Errorf("failed to decode patient data for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(findings), &c.Findings); err != nil {
		return nil, fmt.Errorf("failed to decode findings for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(recommendations), &c.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(conversation), &c.Conversation); err != nil {
		return nil, fmt.Errorf("failed to decode conversation for %s: %w", c.ID, err)
	}
	if feedback.Valid {
		c.TeacherFeedback = &feedback.String
	}
	if score.Valid {
		c.Score = &score.Float64
	}

	return c, nil
}

// GetByID retrieves a consultation by id. Returns nil when absent.
func (r *ConsultationRepository) GetByID(id string) (*models.Consultation, error) {
	query := "SELECT " + consultationColumns + " FROM consultations WHERE id = ?"
	c, err := scanConsultation(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListByUser retrieves a user's consultations, newest first
func (r *ConsultationRepository) ListByUser(userID string, limit int) ([]models.Consultation, error) {
	query := "SELECT " + consultationColumns + ` FROM consultations
		WHERE user_id = ? ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consultations []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows.Scan)
		if err != nil {
			return nil, err
		}
		consultations = append(consultations, *c)
	}

	return consultations, rows.Err()
}

// SetFeedback writes teacher feedback and an optional score on a submission
func (r *ConsultationRepository) SetFeedback(id, feedback string, score *float64) error {
	query := "UPDATE consultations SET teacher_feedback = ?, score = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, feedback, score, time.Now().UTC(), id)
	return err
}
