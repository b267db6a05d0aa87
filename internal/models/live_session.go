package models

import "time"

// Live session statuses. countdown -> active -> completed; completed is
// terminal.
const (
	SessionStatusCountdown = "countdown"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Student progress statuses within a live session
const (
	ProgressStatusReady     = "ready"
	ProgressStatusTyping    = "typing"
	ProgressStatusCompleted = "completed"
)

// LiveSession is the time-bounded execution record of one room's activity,
// keyed by room code (one per room).
type LiveSession struct {
	RoomCode           string                     `json:"roomCode"`
	RoomID             string                     `json:"roomId"`
	Status             string                     `json:"status"`
	CountdownStartedAt time.Time                  `json:"countdownStartedAt"`
	CountdownDuration  int                        `json:"countdownDuration"`
	StartedAt          *time.Time                 `json:"startedAt"`
	ModuleContent      string                     `json:"moduleContent"`
	TimeLimit          int                        `json:"timeLimit"`
	WordCount          int                        `json:"wordCount"`
	Settings           SessionSettings            `json:"settings"`
	Difficulty         string                     `json:"difficulty"`
	StudentProgress    map[string]StudentProgress `json:"studentProgress"`
	Leaderboard        []LeaderboardEntry         `json:"leaderboard"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`
}

// SessionSettings are teacher-chosen options for a live activity
type SessionSettings struct {
	ShowLeaderboard        bool   `json:"showLeaderboard"`
	AllowLateJoin          bool   `json:"allowLateJoin"`
	AutoEndAfterCompletion bool   `json:"autoEndAfterCompletion"`
	GameMode               string `json:"gameMode"`   // timed | word-count
	Difficulty             string `json:"difficulty"` // easy | medium | hard
}

// DefaultSessionSettings returns the settings applied when the teacher
// provides none.
func DefaultSessionSettings() SessionSettings {
	return SessionSettings{
		ShowLeaderboard:        true,
		AllowLateJoin:          false,
		AutoEndAfterCompletion: true,
		GameMode:               "timed",
		Difficulty:             "medium",
	}
}

// StudentProgress tracks one student's performance during a live session
type StudentProgress struct {
	StudentID       string     `json:"studentId"`
	StudentName     string     `json:"studentName"`
	Status          string     `json:"status"`
	WPM             float64    `json:"wpm"`
	Accuracy        float64    `json:"accuracy"`
	Progress        float64    `json:"progress"`
	CurrentPosition int        `json:"currentPosition"`
	StartedTypingAt *time.Time `json:"startedTypingAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	LastUpdate      time.Time  `json:"lastUpdate"`
}

// LeaderboardEntry is one ranked row of a session leaderboard. The whole
// board is recomputed on every progress update, never patched.
type LeaderboardEntry struct {
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	Rank        int     `json:"rank"`
	WPM         float64 `json:"wpm"`
	Accuracy    float64 `json:"accuracy"`
	Progress    float64 `json:"progress"`
	Status      string  `json:"status"`
}

// ProgressUpdate is the mutable subset of StudentProgress accepted from
// clients. Nil fields are left unchanged.
type ProgressUpdate struct {
	StudentID       string   `json:"studentId"`
	WPM             *float64 `json:"wpm"`
	Accuracy        *float64 `json:"accuracy"`
	Progress        *float64 `json:"progress"`
	CurrentPosition *int     `json:"currentPosition"`
	Status          string   `json:"status"`
}

// ValidProgressStatus reports whether status is one of the closed set
func ValidProgressStatus(status string) bool {
	switch status {
	case ProgressStatusReady, ProgressStatusTyping, ProgressStatusCompleted:
		return true
	}
	return false
}
