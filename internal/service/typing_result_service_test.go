package service

import (
	"testing"
	"time"

	"nursescript/internal/models"
	"nursescript/internal/repository"
)

type fakeResultStore struct {
	saved []models.TypingResult
}

func (f *fakeResultStore) Save(result *models.TypingResult) error {
	f.saved = append(f.saved, *result)
	return nil
}

func (f *fakeResultStore) ListByUser(userID string, filter repository.ResultFilter) ([]models.TypingResult, error) {
	var out []models.TypingResult
	for i := len(f.saved) - 1; i >= 0; i-- { // newest first
		r := f.saved[i]
		if r.UserID != userID {
			continue
		}
		if filter.SessionType != "" && r.SessionType != filter.SessionType {
			continue
		}
		if !filter.Since.IsZero() && r.Timestamp.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !r.Timestamp.Before(filter.Until) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeResultStore) ListByEmail(email string, filter repository.ResultFilter) ([]models.TypingResult, error) {
	var out []models.TypingResult
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].UserEmail == email {
			out = append(out, f.saved[i])
		}
	}
	return out, nil
}

func (f *fakeResultStore) ListBetween(start, end time.Time) ([]models.TypingResult, error) {
	var out []models.TypingResult
	for _, r := range f.saved {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) GetByID(id string) (*models.User, error) {
	return f.users[id], nil
}

type fakeResultRoomStore struct {
	rooms map[string]*models.Room
}

func (f *fakeResultRoomStore) GetByID(id string) (*models.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeResultRoomStore) ListCreatedSince(cutoff time.Time, limit int) ([]models.Room, error) {
	var out []models.Room
	for _, r := range f.rooms {
		if !r.CreatedAt.Before(cutoff) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func newResultService() (*TypingResultService, *fakeResultStore) {
	results := &fakeResultStore{}
	users := &fakeUserStore{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ana Cruz", Email: "ana@example.edu", UserType: "student"},
	}}
	rooms := &fakeResultRoomStore{rooms: map[string]*models.Room{
		"room-1": {ID: "room-1", Module: "Cardiac Assessment", DifficultyLevel: models.DifficultyHard, CreatedAt: time.Now().UTC()},
	}}
	return NewTypingResultService(results, users, rooms), results
}

func TestSaveResolvesIdentityFromPrefixedID(t *testing.T) {
	svc, store := newResultService()

	saved, err := svc.Save(&models.TypingResult{
		UserID:      "student_u1",
		SessionType: models.SessionTypePractice,
		WPM:         42,
		Accuracy:    95,
	})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if saved.UserName != "Ana Cruz" || saved.UserEmail != "ana@example.edu" {
		t.Errorf("identity not resolved: name=%q email=%q", saved.UserName, saved.UserEmail)
	}
	if saved.ID == "" {
		t.Error("result id should be generated")
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(store.saved))
	}
}

func TestSaveStampsRoomContent(t *testing.T) {
	svc, _ := newResultService()

	saved, err := svc.Save(&models.TypingResult{
		UserID:      "u1",
		SessionType: models.SessionTypeRoom,
		RoomID:      "room-1",
		WPM:         38,
		Accuracy:    91,
	})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if saved.Content.Topic != "Cardiac Assessment" {
		t.Errorf("topic = %q, want Cardiac Assessment", saved.Content.Topic)
	}
	if saved.Content.Difficulty != models.DifficultyHard {
		t.Errorf("difficulty = %q, want Hard", saved.Content.Difficulty)
	}
}

func TestSaveValidation(t *testing.T) {
	svc, _ := newResultService()

	tests := []struct {
		name   string
		result models.TypingResult
	}{
		{"missing user", models.TypingResult{WPM: 40, Accuracy: 90}},
		{"bad session type", models.TypingResult{UserID: "u1", SessionType: "arcade", WPM: 40, Accuracy: 90}},
		{"negative wpm", models.TypingResult{UserID: "u1", WPM: -1, Accuracy: 90}},
		{"accuracy over 100", models.TypingResult{UserID: "u1", WPM: 40, Accuracy: 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Save(&tt.result); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func seedResults(svc *TypingResultService, wpms []float64) {
	base := svc.now().UTC().AddDate(0, 0, -10)
	for i, wpm := range wpms {
		svc.Save(&models.TypingResult{
			UserID:    "u1",
			WPM:       wpm,
			Accuracy:  90,
			Duration:  60,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestStatsImprovementTrend(t *testing.T) {
	tests := []struct {
		name string
		wpms []float64 // oldest first
		want string
	}{
		{"improving", []float64{30, 31, 40, 41}, "improving"},
		{"declining", []float64{40, 41, 30, 31}, "declining"},
		{"stable", []float64{40, 40, 41, 41}, "stable"},
		{"single result", []float64{40}, "no-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newResultService()
			seedResults(svc, tt.wpms)

			stats, err := svc.Stats("u1", 30)
			if err != nil {
				t.Fatalf("Stats() error: %v", err)
			}
			if stats.ImprovementTrend != tt.want {
				t.Errorf("trend = %q, want %q", stats.ImprovementTrend, tt.want)
			}
		})
	}
}

func TestStatsAggregates(t *testing.T) {
	svc, _ := newResultService()
	seedResults(svc, []float64{30, 50})

	stats, err := svc.Stats("u1", 30)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}

	if stats.TotalSessions != 2 {
		t.Errorf("totalSessions = %d, want 2", stats.TotalSessions)
	}
	if stats.AverageWPM != 40 {
		t.Errorf("averageWPM = %d, want 40", stats.AverageWPM)
	}
	if stats.BestWPM != 50 {
		t.Errorf("bestWPM = %v, want 50", stats.BestWPM)
	}
	if stats.TotalTimeSpent != 120 {
		t.Errorf("totalTimeSpent = %d, want 120", stats.TotalTimeSpent)
	}
}

func TestStatsNoData(t *testing.T) {
	svc, _ := newResultService()

	stats, err := svc.Stats("nobody", 30)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.ImprovementTrend != "no-data" || stats.TotalSessions != 0 {
		t.Errorf("empty history should report no-data, got %+v", stats)
	}
}

func TestTopWPMThisMonthBestPerUser(t *testing.T) {
	svc, _ := newResultService()
	now := time.Now().UTC()

	for _, r := range []models.TypingResult{
		{UserID: "a", UserEmail: "a@x", WPM: 40, Accuracy: 90, Timestamp: now},
		{UserID: "a", UserEmail: "a@x", WPM: 55, Accuracy: 92, Timestamp: now},
		{UserID: "b", UserEmail: "b@x", WPM: 48, Accuracy: 88, Timestamp: now},
	} {
		result := r
		if _, err := svc.Save(&result); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	top, err := svc.TopWPMThisMonth(10)
	if err != nil {
		t.Fatalf("TopWPMThisMonth() error: %v", err)
	}

	if len(top) != 2 {
		t.Fatalf("expected one entry per user, got %d", len(top))
	}
	if top[0].UserEmail != "a@x" || top[0].WPM != 55 {
		t.Errorf("expected a@x at 55 WPM first, got %s at %v", top[0].UserEmail, top[0].WPM)
	}
	if top[1].UserEmail != "b@x" {
		t.Errorf("expected b@x second, got %s", top[1].UserEmail)
	}
}
