package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nursescript/internal/models"
	"nursescript/internal/roomcode"
)

var (
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrTeacherExists   = errors.New("a teacher with this email already exists")
	ErrTeacherInactive = errors.New("teacher account is deactivated")
)

const tempPasswordLength = 10

// teacherStore is the persistence surface the teacher service needs
type teacherStore interface {
	Create(t *models.Teacher) error
	GetByID(id string) (*models.Teacher, error)
	GetByAuthUID(authUID string) (*models.Teacher, error)
	GetByEmail(email string) (*models.Teacher, error)
	List() ([]models.Teacher, error)
	Update(t *models.Teacher) error
	Delete(id string) error
	AddStudents(teacherID string, studentIDs []string) (int, error)
	RemoveStudent(teacherID, studentID string) error
	StudentIDs(teacherID string) ([]string, error)
}

// rosterUserStore resolves roster ids to accounts
type rosterUserStore interface {
	GetByIDs(ids []string) ([]models.User, error)
	Search(term string, limit int) ([]models.User, error)
}

// welcomeMailer sends credential emails for new teacher accounts
type welcomeMailer interface {
	SendTeacherWelcomeEmail(ctx context.Context, toEmail, toName, tempPassword string) error
}

// TeacherService owns teacher accounts and their student rosters
type TeacherService struct {
	teachers teacherStore
	users    rosterUserStore
	mailer   welcomeMailer
}

// NewTeacherService creates a teacher service
func NewTeacherService(teachers teacherStore, users rosterUserStore, mailer welcomeMailer) *TeacherService {
	return &TeacherService{teachers: teachers, users: users, mailer: mailer}
}

// CreateTeacherRequest carries the admin's new-account parameters
type CreateTeacherRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
	Department  string `json:"department"`
	EmployeeID  string `json:"employeeId"`
	Phone       string `json:"phone"`
	CreatedBy   string `json:"createdBy"`
}

// CreateTeacherResult reports the outcome of account creation. The temporary
// password appears here once and is never retrievable again; a failed
// credentials email does not fail the creation, it is reported instead.
type CreateTeacherResult struct {
	Teacher      *models.Teacher `json:"teacher"`
	TempPassword string          `json:"tempPassword"`
	EmailSent    bool            `json:"emailSent"`
	EmailError   string          `json:"emailError,omitempty"`
}

// CreateTeacher creates a teacher account with a hashed temporary password
// and emails the credentials.
func (s *TeacherService) CreateTeacher(ctx context.Context, req CreateTeacherRequest) (*CreateTeacherResult, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, errors.New("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}

	existing, err := s.teachers.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTeacherExists
	}

	tempPassword, err := roomcode.TempPassword(tempPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		ID:               uuid.New().String(),
		Name:             name,
		Email:            email,
		Institution:      req.Institution,
		Department:       req.Department,
		EmployeeID:       req.EmployeeID,
		Phone:            req.Phone,
		IsActive:         true,
		TempPasswordHash: string(hash),
		CreatedBy:        req.CreatedBy,
	}
	if err := s.teachers.Create(teacher); err != nil {
		return nil, err
	}

	result := &CreateTeacherResult{Teacher: teacher, TempPassword: tempPassword}
	if err := s.mailer.SendTeacherWelcomeEmail(ctx, email, name, tempPassword); err != nil {
		log.Printf("failed to send credentials email to %s: %v", email, err)
		result.EmailError = err.Error()
	} else {
		result.EmailSent = true
	}

	return result, nil
}

// Lookup resolves an identifier to a teacher by primary key, then the legacy
// auth uid, then email. First hit wins.
func (s *TeacherService) Lookup(identifier string) (*models.Teacher, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrTeacherNotFound
	}

	for _, find := range []func(string) (*models.Teacher, error){
		s.teachers.GetByID,
		s.teachers.GetByAuthUID,
		s.teachers.GetByEmail,
	} {
		teacher, err := find(identifier)
		if err != nil {
			return nil, err
		}
		if teacher != nil {
			return teacher, nil
		}
	}
	return nil, ErrTeacherNotFound
}

// List retrieves all teacher accounts
func (s *TeacherService) List() ([]models.Teacher, error) {
	return s.teachers.List()
}

// UpdateProfileRequest carries editable teacher profile fields. Nil fields
// are left unchanged.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Institution *string `json:"institution"`
	Department  *string `json:"department"`
	EmployeeID  *string `json:"employeeId"`
	Phone       *string `json:"phone"`
	IsActive    *bool   `json:"isActive"`
}

// UpdateProfile applies a partial profile update
func (s *TeacherService) UpdateProfile(id string, req UpdateProfileRequest) (*models.Teacher, error) {
	teacher, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errors.New("name cannot be empty")
		}
		teacher.Name = strings.TrimSpace(*req.Name)
	}
	if req.Institution != nil {
		teacher.Institution = *req.Institution
	}
	if req.Department != nil {
		teacher.Department = *req.Department
	}
	if req.EmployeeID != nil {
		teacher.EmployeeID = *req.EmployeeID
	}
	if req.Phone != nil {
		teacher.Phone = *req.Phone
	}
	if req.IsActive != nil {
		teacher.IsActive = *req.IsActive
	}

	if err := s.teachers.Update(teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// MarkPasswordChanged records that the teacher replaced the temporary
// password.
func (s *TeacherService) MarkPasswordChanged(id string) error {
	teacher, err := s.Lookup(id)
	if err != nil {
		return err
	}
	teacher.PasswordChanged = true
	return s.teachers.Update(teacher)
}

// Delete removes a teacher account and its roster
func (s *TeacherService) Delete(id string) error {
	teacher, err := s.Lookup(id)
	if err != nil {
		return err
	}
	return s.teachers.Delete(teacher.ID)
}

// AddStudents appends students to the teacher's roster, returning how many
// were new.
func (s *TeacherService) AddStudents(teacherID string, studentIDs []string) (int, error) {
	if len(studentIDs) == 0 {
		return 0, errors.New("studentIds is required")
	}
	teacher, err := s.Lookup(teacherID)
	if err != nil {
		return 0, err
	}
	if !teacher.IsActive {
		return 0, ErrTeacherInactive
	}
	return s.teachers.AddStudents(teacher.ID, studentIDs)
}

// RemoveStudent drops one student from the roster
func (s *TeacherService) RemoveStudent(teacherID, studentID string) error {
	teacher, err := s.Lookup(teacherID)
	if err != nil {
		return err
	}
	return s.teachers.RemoveStudent(teacher.ID, studentID)
}

// Students resolves the teacher's roster to full user records
func (s *TeacherService) Students(teacherID string) ([]models.User, error) {
	teacher, err := s.Lookup(teacherID)
	if err != nil {
		return nil, err
	}
	ids, err := s.teachers.StudentIDs(teacher.ID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.users.GetByIDs(ids)
}

// SearchStudents finds student accounts matching a name or email fragment
func (s *TeacherService) SearchStudents(term string, limit int) ([]models.User, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, fmt.Errorf("search term must be at least 2 characters")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(term, limit)
}
