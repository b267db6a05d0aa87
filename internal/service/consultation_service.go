package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"nursescript/internal/models"
)

var ErrConsultationNotFound = errors.New("consultation not found")

// consultationStore is the persistence surface the consultation service needs
type consultationStore interface {
	Create(c *models.Consultation) error
	GetByID(id string) (*models.Consultation, error)
	ListByUser(userID string, limit int) ([]models.Consultation, error)
	SetFeedback(id, feedback string, score *float64) error
}

// ConsultationService owns AI-patient consultation submissions and teacher
// feedback on them.
type ConsultationService struct {
	consultations consultationStore
}

// NewConsultationService creates a consultation service
func NewConsultationService(consultations consultationStore) *ConsultationService {
	return &ConsultationService{consultations: consultations}
}

// Save validates and persists a consultation submission
func (s *ConsultationService) Save(c *models.Consultation) (*models.Consultation, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return nil, errors.New("userId is required")
	}
	if strings.TrimSpace(c.PatientName) == "" && strings.TrimSpace(c.PatientData.Name) == "" {
		return nil, errors.New("patient name is required")
	}
	if c.PatientName == "" {
		c.PatientName = c.PatientData.Name
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	if err := s.consultations.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a consultation by id
func (s *ConsultationService) Get(id string) (*models.Consultation, error) {
	c, err := s.consultations.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConsultationNotFound
	}
	return c, nil
}

// History retrieves a user's consultations, newest first
func (s *ConsultationService) History(userID string, limit int) ([]models.Consultation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("userId is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.consultations.ListByUser(userID, limit)
}

// Feedback records teacher feedback and an optional score on a submission.
// Score, when present, must be a percentage.
func (s *ConsultationService) Feedback(id, feedback string, score *float64) (*models.Consultation, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, errors.New("feedback is required")
	}
	if score != nil && (*score < 0 || *score > 100) {
		return nil, errors.New("score must be between 0 and 100")
	}

	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if err := s.consultations.SetFeedback(id, feedback, score); err != nil {
		return nil, err
	}
	return s.Get(id)
}
