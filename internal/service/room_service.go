package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"nursescript/internal/models"
	"nursescript/internal/roomcode"
)

var (
	ErrRoomCompleted    = errors.New("room has already completed")
	ErrStatusMovesBack  = errors.New("room status cannot move backwards")
	ErrNotRoomOwner     = errors.New("room belongs to a different teacher")
	ErrStudentNotJoined = errors.New("student is not in this room")
)

// Attempts at a random room code before falling back to a time-derived one
const codeAllocAttempts = 3

// Minimum word count for a Word Count Challenge room
const minWordCount = 10

// roomStore is the persistence surface the room service needs
type roomStore interface {
	Create(room *models.Room) error
	GetByCode(roomCode string) (*models.Room, error)
	GetByID(id string) (*models.Room, error)
	List(teacherID, status string) ([]models.Room, error)
	UpdateStatus(roomID, status string) error
	Delete(roomID string) error
	CodeExists(roomCode string) (bool, error)
	AddStudent(m *models.Membership) error
	GetStudent(roomID, studentID string) (*models.Membership, error)
	RemoveStudent(roomID, studentID string) error
}

// sessionDropper lets room deletion cascade to the live session without the
// room service owning session logic
type sessionDropper interface {
	DropSession(roomCode string) error
}

// RoomService owns room lifecycle and membership
type RoomService struct {
	rooms    roomStore
	sessions sessionDropper
	now      func() time.Time
}

// NewRoomService creates a room service
func NewRoomService(rooms roomStore, sessions sessionDropper) *RoomService {
	return &RoomService{rooms: rooms, sessions: sessions, now: time.Now}
}

// CreateRoomRequest carries the teacher's room parameters
type CreateRoomRequest struct {
	ActivityName    string `json:"activityName"`
	Section         string `json:"section"`
	YearLevel       string `json:"yearLevel"`
	Mode            string `json:"mode"`
	RoomType        string `json:"roomType"`
	Duration        *int   `json:"duration"`
	WordCount       *int   `json:"wordCount"`
	Module          string `json:"module"`
	DifficultyLevel string `json:"difficultyLevel"`
	TeacherID       string `json:"teacherId"`
	TeacherName     string `json:"teacherName"`
}

func (req *CreateRoomRequest) validate() error {
	if strings.TrimSpace(req.ActivityName) == "" {
		return errors.New("activity name is required")
	}
	if strings.TrimSpace(req.TeacherID) == "" {
		return errors.New("teacher id is required")
	}
	if !models.ValidMode(req.Mode) {
		return fmt.Errorf("invalid mode %q", req.Mode)
	}
	if req.DifficultyLevel != "" && !models.ValidDifficulty(req.DifficultyLevel) {
		return fmt.Errorf("invalid difficulty level %q", req.DifficultyLevel)
	}

	switch req.Mode {
	case models.ModeTimed:
		if req.Duration == nil || *req.Duration < 1 {
			return errors.New("timed rooms need a duration of at least 1 minute")
		}
	case models.ModeWordCount:
		if req.WordCount == nil || *req.WordCount < minWordCount {
			return fmt.Errorf("word count challenge rooms need a word count of at least %d", minWordCount)
		}
	}
	return nil
}

// CreateRoom validates the request, allocates a unique room code, and
// persists the room in waiting status.
func (s *RoomService) CreateRoom(req CreateRoomRequest) (*models.Room, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	code, err := s.allocateCode()
	if err != nil {
		return nil, err
	}

	roomType := req.RoomType
	if roomType == "" {
		roomType = models.RoomTypeTypingTest
	}
	// AI Patient rooms are always the AI Patient room type regardless of
	// what the client sent.
	if req.Mode == models.ModeAIPatient {
		roomType = models.RoomTypeAIPatient
	}

	difficulty := req.DifficultyLevel
	if difficulty == "" {
		difficulty = models.DifficultyNormal
	}

	room := &models.Room{
		ID:              uuid.New().String(),
		RoomCode:        code,
		ActivityName:    strings.TrimSpace(req.ActivityName),
		Section:         req.Section,
		YearLevel:       req.YearLevel,
		Mode:            req.Mode,
		RoomType:        roomType,
		Duration:        req.Duration,
		WordCount:       req.WordCount,
		Module:          req.Module,
		DifficultyLevel: difficulty,
		TeacherID:       req.TeacherID,
		TeacherName:     req.TeacherName,
		Status:          models.RoomStatusWaiting,
		StudentsJoined:  []models.Membership{},
	}

	if err := s.rooms.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

// allocateCode draws random codes until one is free, falling back to a
// time-derived code when randomness keeps colliding.
func (s *RoomService) allocateCode() (string, error) {
	for i := 0; i < codeAllocAttempts; i++ {
		code, err := roomcode.Generate()
		if err != nil {
			return "", err
		}
		exists, err := s.rooms.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	code, err := roomcode.FallbackFromTime(s.now())
	if err != nil {
		return "", err
	}
	return code, nil
}

// GetRoom retrieves a room with its membership by code
func (s *RoomService) GetRoom(roomCode string) (*models.Room, error) {
	room, err := s.rooms.GetByCode(roomcode.Normalize(roomCode))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ListRooms retrieves rooms optionally filtered by teacher and status
func (s *RoomService) ListRooms(teacherID, status string) ([]models.Room, error) {
	if status != "" && !models.ValidRoomStatus(status) {
		return nil, fmt.Errorf("invalid status filter %q", status)
	}
	return s.rooms.List(teacherID, status)
}

// UpdateStatus moves a room's status. Backward transitions are rejected so
// a stale client cannot reopen a completed room.
func (s *RoomService) UpdateStatus(roomCode, status string) (*models.Room, error) {
	if !models.ValidRoomStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	room, err := s.GetRoom(roomCode)
	if err != nil {
		return nil, err
	}
	if !models.RoomStatusMovesForward(room.Status, status) {
		return nil, ErrStatusMovesBack
	}
	if room.Status == status {
		return room, nil
	}

	if err := s.rooms.UpdateStatus(room.ID, status); err != nil {
		return nil, err
	}
	room.Status = status
	return room, nil
}

// DeleteRoom removes a room, its membership, and any live session
func (s *RoomService) DeleteRoom(roomCode, teacherID string) error {
	room, err := s.GetRoom(roomCode)
	if err != nil {
		return err
	}
	if teacherID != "" && room.TeacherID != teacherID {
		return ErrNotRoomOwner
	}

	if s.sessions != nil {
		if err := s.sessions.DropSession(room.RoomCode); err != nil {
			log.Printf("failed to drop session for deleted room %s: %v", room.RoomCode, err)
		}
	}
	return s.rooms.Delete(room.ID)
}

// JoinRequest carries a student's join parameters
type JoinRequest struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Email       string `json:"email"`
	YearLevel   string `json:"yearLevel"`
	Section     string `json:"section"`
}

// Join adds a student to a room. Joining a room you are already in is not
// an error; the existing membership is returned unchanged.
func (s *RoomService) Join(roomCode string, req JoinRequest) (*models.Room, *models.Membership, bool, error) {
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, nil, false, errors.New("studentId is required")
	}
	if strings.TrimSpace(req.StudentName) == "" {
		return nil, nil, false, errors.New("studentName is required")
	}

	room, err := s.GetRoom(roomCode)
	if err != nil {
		return nil, nil, false, err
	}
	if room.Status == models.RoomStatusCompleted {
		return nil, nil, false, ErrRoomCompleted
	}

	existing, err := s.rooms.GetStudent(room.ID, req.StudentID)
	if err != nil {
		return nil, nil, false, err
	}
	if existing != nil {
		return room, existing, true, nil
	}

	member := &models.Membership{
		RoomID:      room.ID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Email:       req.Email,
		YearLevel:   req.YearLevel,
		Section:     req.Section,
		JoinedAt:    s.now().UTC(),
		Status:      models.MemberStatusReady,
	}
	if err := s.rooms.AddStudent(member); err != nil {
		return nil, nil, false, err
	}

	room.StudentsJoined = append(room.StudentsJoined, *member)
	return room, member, false, nil
}

// Leave removes a student's membership
func (s *RoomService) Leave(roomCode, studentID string) error {
	room, err := s.GetRoom(roomCode)
	if err != nil {
		return err
	}

	member, err := s.rooms.GetStudent(room.ID, studentID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrStudentNotJoined
	}

	return s.rooms.RemoveStudent(room.ID, studentID)
}

// RoomsForStudent retrieves the rooms a student has joined, filtered to the
// given statuses when provided.
func (s *RoomService) RoomsForStudent(studentID string, statuses []string) ([]models.Room, error) {
	all, err := s.rooms.List("", "")
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}

	var joined []models.Room
	for _, room := range all {
		if len(allowed) > 0 && !allowed[room.Status] {
			continue
		}
		for _, m := range room.StudentsJoined {
			if m.StudentID == studentID {
				joined = append(joined, room)
				break
			}
		}
	}
	return joined, nil
}
