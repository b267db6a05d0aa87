package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nursescript/internal/models"
	"nursescript/internal/repository"
)

var ErrResultNotFound = errors.New("typing result not found")

// WPM delta between the first and second half of a period before the trend
// counts as a real change
const trendThresholdWPM = 2.0

// resultStore is the persistence surface the results service needs
type resultStore interface {
	Save(result *models.TypingResult) error
	ListByUser(userID string, filter repository.ResultFilter) ([]models.TypingResult, error)
	ListByEmail(email string, filter repository.ResultFilter) ([]models.TypingResult, error)
	ListBetween(start, end time.Time) ([]models.TypingResult, error)
}

// resultUserStore resolves account identity for results saved with a bare id
type resultUserStore interface {
	GetByID(id string) (*models.User, error)
}

// resultRoomStore resolves the owning room of a room-session result
type resultRoomStore interface {
	GetByID(id string) (*models.Room, error)
	ListCreatedSince(cutoff time.Time, limit int) ([]models.Room, error)
}

// TypingResultService owns the append-only result history and the
// aggregations derived from it.
type TypingResultService struct {
	results resultStore
	users   resultUserStore
	rooms   resultRoomStore
	now     func() time.Time
}

// NewTypingResultService creates a typing result service
func NewTypingResultService(results resultStore, users resultUserStore, rooms resultRoomStore) *TypingResultService {
	return &TypingResultService{results: results, users: users, rooms: rooms, now: time.Now}
}

// Save validates and persists a typing result. Missing identity fields are
// resolved from the users table; room-session results missing content
// metadata inherit the room's module and difficulty.
func (s *TypingResultService) Save(result *models.TypingResult) (*models.TypingResult, error) {
	if strings.TrimSpace(result.UserID) == "" {
		return nil, errors.New("userId is required")
	}
	if result.SessionType == "" {
		result.SessionType = models.SessionTypePractice
	}
	if !models.ValidSessionType(result.SessionType) {
		return nil, fmt.Errorf("invalid session type %q", result.SessionType)
	}
	if result.WPM < 0 || result.Accuracy < 0 || result.Accuracy > 100 {
		return nil, errors.New("wpm must be non-negative and accuracy between 0 and 100")
	}

	if result.UserName == "" || result.UserEmail == "" {
		s.resolveIdentity(result)
	}

	if result.SessionType == models.SessionTypeRoom && result.RoomID != "" &&
		(result.Content.Topic == "" || result.Content.Difficulty == "") {
		if room, err := s.rooms.GetByID(result.RoomID); err == nil && room != nil {
			if result.Content.Topic == "" {
				result.Content.Topic = room.Module
			}
			if result.Content.Difficulty == "" {
				result.Content.Difficulty = room.DifficultyLevel
			}
		}
	}

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = s.now().UTC()
	}

	if err := s.results.Save(result); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveIdentity fills user name and email from the account record. Client
// ids sometimes carry a student_ prefix the users table does not.
func (s *TypingResultService) resolveIdentity(result *models.TypingResult) {
	lookup := []string{result.UserID}
	if trimmed := strings.TrimPrefix(result.UserID, "student_"); trimmed != result.UserID {
		lookup = append(lookup, trimmed)
	}

	for _, id := range lookup {
		user, err := s.users.GetByID(id)
		if err != nil || user == nil {
			continue
		}
		if result.UserName == "" {
			result.UserName = user.Name
		}
		if result.UserEmail == "" {
			result.UserEmail = user.Email
		}
		if result.UserType == "" {
			result.UserType = user.UserType
		}
		return
	}
}

// HistoryQuery narrows a result history request
type HistoryQuery struct {
	SessionType string
	TodayOnly   bool
	Limit       int
}

// UserResults retrieves a user's results, newest first
func (s *TypingResultService) UserResults(userID string, q HistoryQuery) ([]models.TypingResult, error) {
	filter := repository.ResultFilter{SessionType: q.SessionType, Limit: q.Limit}
	if q.TodayOnly {
		now := s.now().UTC()
		filter.Since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return s.results.ListByUser(userID, filter)
}

// ResultsByEmail retrieves results recorded under an email address
func (s *TypingResultService) ResultsByEmail(email string, q HistoryQuery) ([]models.TypingResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("email is required")
	}
	return s.results.ListByEmail(email, repository.ResultFilter{SessionType: q.SessionType, Limit: q.Limit})
}

// Stats aggregates a user's results over the trailing number of days
func (s *TypingResultService) Stats(userID string, days int) (*models.UserStats, error) {
	if days <= 0 {
		days = 30
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	results, err := s.results.ListByUser(userID, repository.ResultFilter{Since: start, Until: end})
	if err != nil {
		return nil, err
	}

	stats := &models.UserStats{
		ImprovementTrend: "no-data",
		DateRange:        models.DateRange{StartDate: start, EndDate: end, Days: days},
	}
	if len(results) == 0 {
		return stats, nil
	}

	var wpmSum, accSum, timeSum float64
	for _, r := range results {
		wpmSum += r.WPM
		accSum += r.Accuracy
		timeSum += r.Duration
		if r.WPM > stats.BestWPM {
			stats.BestWPM = r.WPM
		}
		if r.Accuracy > stats.BestAccuracy {
			stats.BestAccuracy = r.Accuracy
		}
	}

	n := float64(len(results))
	stats.TotalSessions = len(results)
	stats.AverageWPM = int(math.Round(wpmSum / n))
	stats.AverageAccuracy = int(math.Round(accSum / n))
	stats.TotalTimeSpent = int(math.Round(timeSum))
	stats.ImprovementTrend = improvementTrend(results)

	return stats, nil
}

// improvementTrend compares average WPM between the older and newer half of
// the period. Results arrive newest first from the store.
func improvementTrend(results []models.TypingResult) string {
	if len(results) < 2 {
		return "no-data"
	}

	mid := len(results) / 2
	newer, older := results[:mid], results[mid:]

	avg := func(rs []models.TypingResult) float64 {
		var sum float64
		for _, r := range rs {
			sum += r.WPM
		}
		return sum / float64(len(rs))
	}

	delta := avg(newer) - avg(older)
	switch {
	case delta > trendThresholdWPM:
		return "improving"
	case delta < -trendThresholdWPM:
		return "declining"
	}
	return "stable"
}

// TopWPMThisMonth returns each user's best result this calendar month,
// ranked by WPM descending.
func (s *TypingResultService) TopWPMThisMonth(limit int) ([]models.TopPerformer, error) {
	if limit <= 0 {
		limit = 10
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	results, err := s.results.ListBetween(monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	best := make(map[string]models.TypingResult)
	for _, r := range results {
		key := r.UserEmail
		if key == "" {
			key = r.UserID
		}
		if current, ok := best[key]; !ok || r.WPM > current.WPM {
			best[key] = r
		}
	}

	performers := make([]models.TopPerformer, 0, len(best))
	for _, r := range best {
		performers = append(performers, models.TopPerformer{
			UserID:      r.UserID,
			UserEmail:   r.UserEmail,
			UserName:    r.UserName,
			WPM:         r.WPM,
			Accuracy:    r.Accuracy,
			ErrorsCount: r.ErrorsCount,
			Timestamp:   r.Timestamp,
			SessionType: r.SessionType,
			Topic:       r.Content.Topic,
		})
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].WPM > performers[j].WPM
	})
	if len(performers) > limit {
		performers = performers[:limit]
	}

	return performers, nil
}

// RecentActivities returns rooms created in the trailing number of days as
// dashboard feed rows, newest first.
func (s *TypingResultService) RecentActivities(days, limit int) ([]models.RecentActivity, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 20
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	rooms, err := s.rooms.ListCreatedSince(cutoff, limit)
	if err != nil {
		return nil, err
	}

	activities := make([]models.RecentActivity, 0, len(rooms))
	for _, room := range rooms {
		activities = append(activities, models.RecentActivity{
			ID:           room.ID,
			Name:         room.ActivityName,
			Section:      room.Section,
			Mode:         room.Mode,
			Difficulty:   room.DifficultyLevel,
			Status:       room.Status,
			StudentCount: len(room.StudentsJoined),
			RoomCode:     room.RoomCode,
			CreatedAt:    room.CreatedAt,
			TeacherID:    room.TeacherID,
			TeacherName:  room.TeacherName,
		})
	}

	return activities, nil
}
