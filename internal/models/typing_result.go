package models

import "time"

// Typing result session types
const (
	SessionTypePractice  = "practice"
	SessionTypeRoom      = "room"
	SessionTypeAIPatient = "ai-patient"
)

// TypingResult is an append-only record of one completed typing test
type TypingResult struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	UserName     string         `json:"userName"`
	UserEmail    string         `json:"userEmail"`
	UserType     string         `json:"userType"`
	SessionType  string         `json:"sessionType"`
	RoomID       string         `json:"roomId,omitempty"`
	WPM          float64        `json:"wpm"`
	Accuracy     float64        `json:"accuracy"`
	Duration     float64        `json:"duration"`
	WordsTyped   int            `json:"wordsTyped"`
	ErrorsCount  int            `json:"errorsCount"`
	Keystrokes   KeystrokeData  `json:"keystrokeData"`
	Content      ResultContent  `json:"content"`
	CommonErrors []CommonError  `json:"commonErrors,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// KeystrokeData summarizes raw keystroke counts for a test
type KeystrokeData struct {
	TotalKeystrokes   int     `json:"totalKeystrokes"`
	CorrectKeystrokes int     `json:"correctKeystrokes"`
	Backspaces        int     `json:"backspaces"`
	AverageSpeed      float64 `json:"averageSpeed"`
}

// ResultContent describes the text the student typed
type ResultContent struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	TextLength int    `json:"textLength"`
}

// CommonError is a recurring mistyped character with its positions
type CommonError struct {
	Character string `json:"character"`
	Count     int    `json:"count"`
	Positions []int  `json:"positions"`
}

// UserStats aggregates a user's typing results over a date range
type UserStats struct {
	TotalSessions    int       `json:"totalSessions"`
	AverageWPM       int       `json:"averageWPM"`
	AverageAccuracy  int       `json:"averageAccuracy"`
	BestWPM          float64   `json:"bestWPM"`
	BestAccuracy     float64   `json:"bestAccuracy"`
	TotalTimeSpent   int       `json:"totalTimeSpent"`
	ImprovementTrend string    `json:"improvementTrend"` // improving | declining | stable | no-data
	DateRange        DateRange `json:"dateRange"`
}

// DateRange bounds a statistics query
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
}

// TopPerformer is one row of the monthly best-WPM board
type TopPerformer struct {
	UserID      string    `json:"userId"`
	UserEmail   string    `json:"userEmail"`
	UserName    string    `json:"userName"`
	WPM         float64   `json:"wpm"`
	Accuracy    float64   `json:"accuracy"`
	ErrorsCount int       `json:"errorsCount"`
	Timestamp   time.Time `json:"timestamp"`
	SessionType string    `json:"sessionType"`
	Topic       string    `json:"topic"`
}

// RecentActivity is one row of the teacher dashboard activity feed
type RecentActivity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Section      string    `json:"section"`
	Mode         string    `json:"mode"`
	Difficulty   string    `json:"difficulty"`
	Status       string    `json:"status"`
	StudentCount int       `json:"studentCount"`
	RoomCode     string    `json:"roomCode"`
	CreatedAt    time.Time `json:"createdAt"`
	TeacherID    string    `json:"teacherId"`
	TeacherName  string    `json:"teacherName"`
}

// ValidSessionType reports whether sessionType is one of the closed set
func ValidSessionType(sessionType string) bool {
	switch sessionType {
	case SessionTypePractice, SessionTypeRoom, SessionTypeAIPatient:
		return true
	}
	return false
}
