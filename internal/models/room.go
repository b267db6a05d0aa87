package models

import "time"

// Room modes
const (
	ModeTimed     = "Timed"
	ModeWordCount = "Word Count Challenge"
	ModeAIPatient = "AI Patient"
)

// Room lifecycle statuses. The status only ever moves forward:
// waiting -> active -> completed.
const (
	RoomStatusWaiting   = "waiting"
	RoomStatusActive    = "active"
	RoomStatusCompleted = "completed"
)

// Room difficulty levels
const (
	DifficultyEasy        = "Easy"
	DifficultyNormal      = "Normal"
	DifficultyHard        = "Hard"
	DifficultyInteractive = "Interactive"
)

// Room types
const (
	RoomTypeTypingTest = "Typing Test"
	RoomTypeAIPatient  = "AI Patient"
)

// Room represents a teacher-created activity instance
type Room struct {
	ID              string       `json:"id"`
	RoomCode        string       `json:"roomCode"`
	ActivityName    string       `json:"activityName"`
	Section         string       `json:"section"`
	YearLevel       string       `json:"yearLevel"`
	Mode            string       `json:"mode"`
	RoomType        string       `json:"roomType"`
	Duration        *int         `json:"duration"`
	WordCount       *int         `json:"wordCount"`
	Module          string       `json:"module"`
	DifficultyLevel string       `json:"difficultyLevel"`
	TeacherID       string       `json:"teacherId"`
	TeacherName     string       `json:"teacherName"`
	Status          string       `json:"status"`
	LiveActivity    LiveActivity `json:"liveActivity"`
	StudentsJoined  []Membership `json:"studentsJoined"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// LiveActivity carries the room-side flags of a running activity
type LiveActivity struct {
	IsActive           bool       `json:"isActive"`
	StartedAt          *time.Time `json:"startedAt"`
	CountdownStartedAt *time.Time `json:"countdownStartedAt"`
	CountdownDuration  int        `json:"countdownDuration"`
	ModuleContent      string     `json:"moduleContent"`
	TimeLimit          int        `json:"timeLimit"`
}

// Membership statuses
const (
	MemberStatusReady     = "ready"
	MemberStatusActive    = "active"
	MemberStatusCompleted = "completed"
)

// Membership is a student's enrollment record within a room. Performance
// fields are a durable mirror of the live session's progress.
type Membership struct {
	RoomID      string     `json:"-"`
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName"`
	Email       string     `json:"email,omitempty"`
	YearLevel   string     `json:"yearLevel,omitempty"`
	Section     string     `json:"section,omitempty"`
	JoinedAt    time.Time  `json:"joinedAt"`
	Status      string     `json:"status"`
	WPM         float64    `json:"wpm"`
	Accuracy    float64    `json:"accuracy"`
	Progress    float64    `json:"progress"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// ValidMode reports whether mode is one of the closed set
func ValidMode(mode string) bool {
	switch mode {
	case ModeTimed, ModeWordCount, ModeAIPatient:
		return true
	}
	return false
}

// ValidDifficulty reports whether level is one of the closed set
func ValidDifficulty(level string) bool {
	switch level {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyInteractive:
		return true
	}
	return false
}

// ValidRoomStatus reports whether status is one of the closed set
func ValidRoomStatus(status string) bool {
	switch status {
	case RoomStatusWaiting, RoomStatusActive, RoomStatusCompleted:
		return true
	}
	return false
}

// roomStatusRank orders statuses for the forward-only transition check
func roomStatusRank(status string) int {
	switch status {
	case RoomStatusWaiting:
		return 0
	case RoomStatusActive:
		return 1
	case RoomStatusCompleted:
		return 2
	}
	return -1
}

// RoomStatusMovesForward reports whether a transition from -> to is allowed
func RoomStatusMovesForward(from, to string) bool {
	return roomStatusRank(to) >= roomStatusRank(from)
}
