package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"nursescript/internal/models"
	"nursescript/internal/roomcode"
)

var (
	ErrSessionNotFound  = errors.New("live session not found")
	ErrSessionExpired   = errors.New("live session has expired")
	ErrSessionCompleted = errors.New("live session has already completed")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNotWaiting   = errors.New("room already has a started or finished activity")
	ErrNotRoomMember    = errors.New("student has not joined this room")
	ErrLateJoinClosed   = errors.New("activity already started and late join is disabled")
)

// Countdown bounds in seconds
const (
	MinCountdownSeconds     = 5
	MaxCountdownSeconds     = 30
	DefaultCountdownSeconds = 10
)

const minModuleContentLength = 3

// Progress update bounds
const (
	maxProgressWPM = 300
	maxPercent     = 100
)

// sessionStore is the persistence surface the session service needs
type sessionStore interface {
	Create(s *models.LiveSession) error
	GetByCode(roomCode string) (*models.LiveSession, error)
	ActivateIfCountdown(roomCode string, startedAt time.Time) (bool, error)
	Complete(roomCode string) error
	SaveProgress(roomCode string, progress map[string]models.StudentProgress, leaderboard []models.LeaderboardEntry) error
	DeleteByRoomCode(roomCode string) error
}

// sessionRoomStore is the room-side surface the session service needs
type sessionRoomStore interface {
	GetByCode(roomCode string) (*models.Room, error)
	StartLiveActivity(roomID string, la models.LiveActivity) error
	EndLiveActivity(roomID string) error
	GetStudent(roomID, studentID string) (*models.Membership, error)
	UpdateStudent(m *models.Membership) error
}

// Publisher pushes live events to connected watchers. The hub implements it;
// a nil-safe no-op is substituted when the live feed is disabled.
type Publisher interface {
	Publish(roomCode, eventType string, data interface{})
}

// LiveSessionService owns the countdown -> active -> completed state machine
// of live sessions, including the countdown timer that fires the automatic
// activation.
type LiveSessionService struct {
	sessions sessionStore
	rooms    sessionRoomStore
	feed     Publisher
	now      func() time.Time

	countdownGrace time.Duration
	maxActivity    time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewLiveSessionService creates a live session service. countdownGrace is
// how long a session may sit in countdown before a reader treats it as
// abandoned; maxActivity caps how long an active session may run beyond its
// own time limit.
func NewLiveSessionService(sessions sessionStore, rooms sessionRoomStore, feed Publisher, countdownGrace, maxActivity time.Duration) *LiveSessionService {
	return &LiveSessionService{
		sessions:       sessions,
		rooms:          rooms,
		feed:           feed,
		now:            time.Now,
		countdownGrace: countdownGrace,
		maxActivity:    maxActivity,
		timers:         make(map[string]*time.Timer),
	}
}

func (s *LiveSessionService) publish(roomCode, eventType string, data interface{}) {
	if s.feed != nil {
		s.feed.Publish(roomCode, eventType, data)
	}
}

// StartActivityRequest carries the teacher's start-activity parameters
type StartActivityRequest struct {
	ModuleContent     string                  `json:"moduleContent"`
	CountdownDuration *int                    `json:"countdownDuration"`
	TimeLimit         int                     `json:"timeLimit"`
	WordCount         int                     `json:"wordCount"`
	Difficulty        string                  `json:"difficulty"`
	Settings          *SessionSettingsRequest `json:"settings"`
}

// SessionSettingsRequest is the partial settings object accepted from the
// teacher. Nil fields keep their defaults.
type SessionSettingsRequest struct {
	ShowLeaderboard        *bool   `json:"showLeaderboard"`
	AllowLateJoin          *bool   `json:"allowLateJoin"`
	AutoEndAfterCompletion *bool   `json:"autoEndAfterCompletion"`
	GameMode               *string `json:"gameMode"`
	Difficulty             *string `json:"difficulty"`
}

// merge overlays the provided fields onto the default settings
func (req *SessionSettingsRequest) merge() (models.SessionSettings, error) {
	settings := models.DefaultSessionSettings()
	if req == nil {
		return settings, nil
	}
	if req.ShowLeaderboard != nil {
		settings.ShowLeaderboard = *req.ShowLeaderboard
	}
	if req.AllowLateJoin != nil {
		settings.AllowLateJoin = *req.AllowLateJoin
	}
	if req.AutoEndAfterCompletion != nil {
		settings.AutoEndAfterCompletion = *req.AutoEndAfterCompletion
	}
	if req.GameMode != nil {
		switch *req.GameMode {
		case "timed", "word-count":
			settings.GameMode = *req.GameMode
		default:
			return settings, fmt.Errorf("invalid game mode %q", *req.GameMode)
		}
	}
	if req.Difficulty != nil {
		switch *req.Difficulty {
		case "easy", "medium", "hard":
			settings.Difficulty = *req.Difficulty
		default:
			return settings, fmt.Errorf("invalid settings difficulty %q", *req.Difficulty)
		}
	}
	return settings, nil
}

// StartActivity begins a live activity for the room: the room flips to
// active, a session is created in countdown, and a timer is armed to
// activate it when the countdown elapses.
func (s *LiveSessionService) StartActivity(roomCode string, req StartActivityRequest) (*models.LiveSession, error) {
	roomCode = roomcode.Normalize(roomCode)
	if len(strings.TrimSpace(req.ModuleContent)) < minModuleContentLength {
		return nil, fmt.Errorf("module content must be at least %d characters", minModuleContentLength)
	}

	countdown := DefaultCountdownSeconds
	if req.CountdownDuration != nil {
		countdown = *req.CountdownDuration
		if countdown < MinCountdownSeconds || countdown > MaxCountdownSeconds {
			return nil, fmt.Errorf("countdown duration must be between %d and %d seconds", MinCountdownSeconds, MaxCountdownSeconds)
		}
	}

	room, err := s.rooms.GetByCode(roomCode)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.Status != models.RoomStatusWaiting {
		return nil, ErrRoomNotWaiting
	}

	settings, err := req.Settings.merge()
	if err != nil {
		return nil, err
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = room.DifficultyLevel
	}

	now := s.now().UTC()
	session := &models.LiveSession{
		RoomCode:           room.RoomCode,
		RoomID:             room.ID,
		Status:             models.SessionStatusCountdown,
		CountdownStartedAt: now,
		CountdownDuration:  countdown,
		ModuleContent:      req.ModuleContent,
		TimeLimit:          req.TimeLimit,
		WordCount:          req.WordCount,
		Settings:           settings,
		Difficulty:         difficulty,
		StudentProgress:    make(map[string]models.StudentProgress),
	}

	// Every already-joined student starts in the progress map as ready so
	// the leaderboard is complete from the first second. Accuracy starts at
	// 100: nobody has mistyped anything yet.
	for _, m := range room.StudentsJoined {
		session.StudentProgress[m.StudentID] = models.StudentProgress{
			StudentID:   m.StudentID,
			StudentName: m.StudentName,
			Status:      models.ProgressStatusReady,
			Accuracy:    100,
			LastUpdate:  now,
		}
	}
	session.Leaderboard = ComputeLeaderboard(session.StudentProgress)

	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	la := models.LiveActivity{
		IsActive:           true,
		CountdownStartedAt: &now,
		CountdownDuration:  countdown,
		ModuleContent:      req.ModuleContent,
		TimeLimit:          req.TimeLimit,
	}
	if err := s.rooms.StartLiveActivity(room.ID, la); err != nil {
		return nil, err
	}

	s.armCountdownTimer(room.RoomCode, time.Duration(countdown)*time.Second)
	s.publish(room.RoomCode, "activity-started", session)

	return session, nil
}

func (s *LiveSessionService) armCountdownTimer(roomCode string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomCode]; ok {
		t.Stop()
	}
	s.timers[roomCode] = time.AfterFunc(d, func() {
		if err := s.ActivateSession(roomCode); err != nil {
			log.Printf("failed to activate session %s: %v", roomCode, err)
		}
	})
}

func (s *LiveSessionService) cancelTimer(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[roomCode]; ok {
		t.Stop()
		delete(s.timers, roomCode)
	}
}

// ActivateSession moves a session from countdown to active. The store-level
// status guard makes it safe against a manual end racing the timer and
// against duplicate firing; losing the race is not an error.
func (s *LiveSessionService) ActivateSession(roomCode string) error {
	roomCode = roomcode.Normalize(roomCode)
	activated, err := s.sessions.ActivateIfCountdown(roomCode, s.now().UTC())
	if err != nil {
		return err
	}
	if !activated {
		return nil
	}

	s.mu.Lock()
	delete(s.timers, roomCode)
	s.mu.Unlock()

	s.publish(roomCode, "session-active", map[string]string{"roomCode": roomCode})
	return nil
}

// EndActivity completes the session and its room. The countdown timer is
// cancelled first so a pending activation cannot resurrect the session.
func (s *LiveSessionService) EndActivity(roomCode string) (*models.LiveSession, error) {
	roomCode = roomcode.Normalize(roomCode)
	s.cancelTimer(roomCode)

	session, err := s.sessions.GetByCode(roomCode)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.Status != models.SessionStatusCompleted {
		if err := s.sessions.Complete(roomCode); err != nil {
			return nil, err
		}
		session.Status = models.SessionStatusCompleted
	}

	if err := s.rooms.EndLiveActivity(session.RoomID); err != nil {
		return nil, err
	}

	s.publish(roomCode, "activity-ended", session)
	return session, nil
}

// GetSession retrieves a session, expiring sessions that were abandoned: a
// countdown older than the grace period, or an active session running past
// its time limit plus the activity cap, is completed on read.
func (s *LiveSessionService) GetSession(roomCode string) (*models.LiveSession, error) {
	roomCode = roomcode.Normalize(roomCode)
	session, err := s.sessions.GetByCode(roomCode)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.expired(session) {
		if _, err := s.EndActivity(roomCode); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return session, nil
}

func (s *LiveSessionService) expired(session *models.LiveSession) bool {
	now := s.now().UTC()
	switch session.Status {
	case models.SessionStatusCountdown:
		return now.Sub(session.CountdownStartedAt) > s.countdownGrace
	case models.SessionStatusActive:
		if session.StartedAt == nil {
			return false
		}
		limit := time.Duration(session.TimeLimit)*time.Second + s.maxActivity
		return now.Sub(*session.StartedAt) > limit
	}
	return false
}

// CanJoin reports whether a student may join the room's activity right now.
// Countdown always admits; active admits only when late join is enabled;
// completed never admits.
func (s *LiveSessionService) CanJoin(session *models.LiveSession) error {
	switch session.Status {
	case models.SessionStatusCountdown:
		return nil
	case models.SessionStatusActive:
		if session.Settings.AllowLateJoin {
			return nil
		}
		return ErrLateJoinClosed
	case models.SessionStatusCompleted:
		return ErrSessionCompleted
	}
	return fmt.Errorf("unknown session status %q", session.Status)
}

// UpdateProgress applies a student's progress update, recomputes the
// leaderboard, mirrors the numbers into the room membership, and publishes
// the new board. Updates against a completed session are rejected so late
// packets cannot disturb final standings.
func (s *LiveSessionService) UpdateProgress(roomCode string, upd models.ProgressUpdate) (*models.LiveSession, error) {
	roomCode = roomcode.Normalize(roomCode)
	if upd.StudentID == "" {
		return nil, errors.New("studentId is required")
	}
	if upd.Status != "" && !models.ValidProgressStatus(upd.Status) {
		return nil, fmt.Errorf("invalid progress status %q", upd.Status)
	}
	if upd.WPM != nil && (*upd.WPM < 0 || *upd.WPM > maxProgressWPM) {
		return nil, fmt.Errorf("wpm must be between 0 and %d", maxProgressWPM)
	}
	if upd.Accuracy != nil && (*upd.Accuracy < 0 || *upd.Accuracy > maxPercent) {
		return nil, fmt.Errorf("accuracy must be between 0 and %d", maxPercent)
	}
	if upd.Progress != nil && (*upd.Progress < 0 || *upd.Progress > maxPercent) {
		return nil, fmt.Errorf("progress must be between 0 and %d", maxPercent)
	}
	if upd.CurrentPosition != nil && *upd.CurrentPosition < 0 {
		return nil, errors.New("currentPosition cannot be negative")
	}

	session, err := s.sessions.GetByCode(roomCode)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	now := s.now().UTC()
	progress, ok := session.StudentProgress[upd.StudentID]
	if !ok {
		// Late joiners are admitted to the progress map only if they hold a
		// membership row for this room.
		member, err := s.rooms.GetStudent(session.RoomID, upd.StudentID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, ErrNotRoomMember
		}
		progress = models.StudentProgress{
			StudentID:   member.StudentID,
			StudentName: member.StudentName,
			Status:      models.ProgressStatusReady,
			Accuracy:    100,
		}
	}

	if upd.WPM != nil {
		progress.WPM = *upd.WPM
	}
	if upd.Accuracy != nil {
		progress.Accuracy = *upd.Accuracy
	}
	if upd.Progress != nil {
		progress.Progress = *upd.Progress
	}
	if upd.CurrentPosition != nil {
		progress.CurrentPosition = *upd.CurrentPosition
	}
	if upd.Status != "" {
		if upd.Status == models.ProgressStatusTyping && progress.StartedTypingAt == nil {
			started := now
			progress.StartedTypingAt = &started
		}
		if upd.Status == models.ProgressStatusCompleted && progress.CompletedAt == nil {
			completed := now
			progress.CompletedAt = &completed
		}
		progress.Status = upd.Status
	}
	progress.LastUpdate = now

	session.StudentProgress[upd.StudentID] = progress
	session.Leaderboard = ComputeLeaderboard(session.StudentProgress)

	if err := s.sessions.SaveProgress(roomCode, session.StudentProgress, session.Leaderboard); err != nil {
		return nil, err
	}

	if member, err := s.rooms.GetStudent(session.RoomID, upd.StudentID); err == nil && member != nil {
		member.Status = progress.Status
		member.WPM = progress.WPM
		member.Accuracy = progress.Accuracy
		member.Progress = progress.Progress
		if err := s.rooms.UpdateStudent(member); err != nil {
			log.Printf("failed to mirror progress for %s in room %s: %v", upd.StudentID, roomCode, err)
		}
	}

	s.publish(roomCode, "leaderboard-updated", session.Leaderboard)

	if session.Settings.AutoEndAfterCompletion && s.allCompleted(session) {
		return s.EndActivity(roomCode)
	}

	return session, nil
}

func (s *LiveSessionService) allCompleted(session *models.LiveSession) bool {
	if len(session.StudentProgress) == 0 {
		return false
	}
	for _, p := range session.StudentProgress {
		if p.Status != models.ProgressStatusCompleted {
			return false
		}
	}
	return true
}

// Leaderboard returns the current board for a session, honoring the
// teacher's showLeaderboard setting.
func (s *LiveSessionService) Leaderboard(roomCode string) ([]models.LeaderboardEntry, bool, error) {
	roomCode = roomcode.Normalize(roomCode)
	session, err := s.sessions.GetByCode(roomCode)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, ErrSessionNotFound
	}
	if !session.Settings.ShowLeaderboard {
		return nil, false, nil
	}
	return session.Leaderboard, true, nil
}

// DropSession removes a room's session and cancels any pending timer. Called
// when the room itself is deleted.
func (s *LiveSessionService) DropSession(roomCode string) error {
	roomCode = roomcode.Normalize(roomCode)
	s.cancelTimer(roomCode)
	return s.sessions.DeleteByRoomCode(roomCode)
}
