package service

import (
	"errors"
	"testing"
	"time"

	"nursescript/internal/models"
)

type fakeSessionStore struct {
	sessions map[string]*models.LiveSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.LiveSession)}
}

func (f *fakeSessionStore) Create(s *models.LiveSession) error {
	clone := *s
	f.sessions[s.RoomCode] = &clone
	return nil
}

func (f *fakeSessionStore) GetByCode(roomCode string) (*models.LiveSession, error) {
	s, ok := f.sessions[roomCode]
	if !ok {
		return nil, nil
	}
	clone := *s
	clone.StudentProgress = make(map[string]models.StudentProgress, len(s.StudentProgress))
	for k, v := range s.StudentProgress {
		clone.StudentProgress[k] = v
	}
	clone.Leaderboard = append([]models.LeaderboardEntry(nil), s.Leaderboard...)
	return &clone, nil
}

func (f *fakeSessionStore) ActivateIfCountdown(roomCode string, startedAt time.Time) (bool, error) {
	s, ok := f.sessions[roomCode]
	if !ok || s.Status != models.SessionStatusCountdown {
		return false, nil
	}
	s.Status = models.SessionStatusActive
	s.StartedAt = &startedAt
	return true, nil
}

func (f *fakeSessionStore) Complete(roomCode string) error {
	if s, ok := f.sessions[roomCode]; ok {
		s.Status = models.SessionStatusCompleted
	}
	return nil
}

func (f *fakeSessionStore) SaveProgress(roomCode string, progress map[string]models.StudentProgress, leaderboard []models.LeaderboardEntry) error {
	s, ok := f.sessions[roomCode]
	if !ok {
		return errors.New("no session")
	}
	s.StudentProgress = progress
	s.Leaderboard = leaderboard
	return nil
}

func (f *fakeSessionStore) DeleteByRoomCode(roomCode string) error {
	delete(f.sessions, roomCode)
	return nil
}

type fakeRoomStore struct {
	rooms   map[string]*models.Room
	members map[string]map[string]*models.Membership
}

func newFakeRoomStore(rooms ...*models.Room) *fakeRoomStore {
	f := &fakeRoomStore{
		rooms:   make(map[string]*models.Room),
		members: make(map[string]map[string]*models.Membership),
	}
	for _, r := range rooms {
		f.rooms[r.RoomCode] = r
		f.members[r.ID] = make(map[string]*models.Membership)
		for i := range r.StudentsJoined {
			m := r.StudentsJoined[i]
			f.members[r.ID][m.StudentID] = &m
		}
	}
	return f
}

func (f *fakeRoomStore) GetByCode(roomCode string) (*models.Room, error) {
	return f.rooms[roomCode], nil
}

func (f *fakeRoomStore) StartLiveActivity(roomID string, la models.LiveActivity) error {
	for _, r := range f.rooms {
		if r.ID == roomID {
			r.Status = models.RoomStatusActive
			r.LiveActivity = la
		}
	}
	return nil
}

func (f *fakeRoomStore) EndLiveActivity(roomID string) error {
	for _, r := range f.rooms {
		if r.ID == roomID {
			r.Status = models.RoomStatusCompleted
			r.LiveActivity.IsActive = false
		}
	}
	return nil
}

func (f *fakeRoomStore) GetStudent(roomID, studentID string) (*models.Membership, error) {
	return f.members[roomID][studentID], nil
}

func (f *fakeRoomStore) UpdateStudent(m *models.Membership) error {
	if byID, ok := f.members[m.RoomID]; ok {
		byID[m.StudentID] = m
	}
	return nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(roomCode, eventType string, data interface{}) {
	f.events = append(f.events, eventType)
}

func testRoom() *models.Room {
	return &models.Room{
		ID:              "room-1",
		RoomCode:        "AB12CD",
		ActivityName:    "Vitals drill",
		Mode:            models.ModeTimed,
		DifficultyLevel: models.DifficultyNormal,
		Status:          models.RoomStatusWaiting,
		StudentsJoined: []models.Membership{
			{RoomID: "room-1", StudentID: "s1", StudentName: "Ana", Status: models.MemberStatusReady},
			{RoomID: "room-1", StudentID: "s2", StudentName: "Ben", Status: models.MemberStatusReady},
		},
	}
}

func newTestService(rooms *fakeRoomStore) (*LiveSessionService, *fakeSessionStore, *fakePublisher) {
	sessions := newFakeSessionStore()
	feed := &fakePublisher{}
	svc := NewLiveSessionService(sessions, rooms, feed, 10*time.Minute, 30*time.Minute)
	return svc, sessions, feed
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func strPtr(v string) *string     { return &v }

func TestStartActivityValidation(t *testing.T) {
	tests := []struct {
		name string
		req  StartActivityRequest
	}{
		{"content too short", StartActivityRequest{ModuleContent: "ab"}},
		{"countdown too low", StartActivityRequest{ModuleContent: "valid content", CountdownDuration: intPtr(4)}},
		{"countdown too high", StartActivityRequest{ModuleContent: "valid content", CountdownDuration: intPtr(31)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(newFakeRoomStore(testRoom()))
			if _, err := svc.StartActivity("AB12CD", tt.req); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestStartActivityDefaults(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	session, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "The patient presents with chest pain."})
	if err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	if session.Status != models.SessionStatusCountdown {
		t.Errorf("status = %q, want countdown", session.Status)
	}
	if session.CountdownDuration != DefaultCountdownSeconds {
		t.Errorf("countdown = %d, want %d", session.CountdownDuration, DefaultCountdownSeconds)
	}
	if !session.Settings.ShowLeaderboard {
		t.Error("default settings should show the leaderboard")
	}
	if session.Settings.AllowLateJoin {
		t.Error("default settings should disallow late join")
	}
	if len(session.StudentProgress) != 2 {
		t.Errorf("expected 2 seeded progress entries, got %d", len(session.StudentProgress))
	}
	if len(session.Leaderboard) != 2 {
		t.Errorf("expected 2 leaderboard entries, got %d", len(session.Leaderboard))
	}
}

func TestActivateSessionMovesCountdownToActive(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	if err := svc.ActivateSession("AB12CD"); err != nil {
		t.Fatalf("ActivateSession() error: %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if session.Status != models.SessionStatusActive {
		t.Errorf("status = %q, want active", session.Status)
	}
	if session.StartedAt == nil {
		t.Error("StartedAt should be set on activation")
	}
}

func TestActivateSessionDoesNotResurrectEndedSession(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}

	if _, err := svc.EndActivity("AB12CD"); err != nil {
		t.Fatalf("EndActivity() error: %v", err)
	}

	// The countdown timer firing after a manual end must be a no-op
	if err := svc.ActivateSession("AB12CD"); err != nil {
		t.Fatalf("ActivateSession() error: %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("status = %q, want completed", session.Status)
	}
}

func TestUpdateProgressRejectedAfterCompletion(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	if _, err := svc.EndActivity("AB12CD"); err != nil {
		t.Fatalf("EndActivity() error: %v", err)
	}

	_, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s1",
		WPM:       floatPtr(45),
	})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestUpdateProgressRecomputesLeaderboard(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")
	if err := svc.ActivateSession("AB12CD"); err != nil {
		t.Fatalf("ActivateSession() error: %v", err)
	}

	if _, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s1", WPM: floatPtr(40), Progress: floatPtr(50), Status: models.ProgressStatusTyping,
	}); err != nil {
		t.Fatalf("UpdateProgress(s1) error: %v", err)
	}
	if _, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s2", WPM: floatPtr(55), Progress: floatPtr(70), Status: models.ProgressStatusTyping,
	}); err != nil {
		t.Fatalf("UpdateProgress(s2) error: %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if len(session.Leaderboard) != 2 {
		t.Fatalf("expected 2 leaderboard entries, got %d", len(session.Leaderboard))
	}
	if session.Leaderboard[0].StudentID != "s2" || session.Leaderboard[0].Rank != 1 {
		t.Errorf("expected s2 ranked first, got %s rank %d", session.Leaderboard[0].StudentID, session.Leaderboard[0].Rank)
	}
	if session.Leaderboard[1].StudentID != "s1" || session.Leaderboard[1].Rank != 2 {
		t.Errorf("expected s1 ranked second, got %s rank %d", session.Leaderboard[1].StudentID, session.Leaderboard[1].Rank)
	}
}

func TestUpdateProgressRejectsNonMember(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	_, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{StudentID: "stranger", WPM: floatPtr(30)})
	if !errors.Is(err, ErrNotRoomMember) {
		t.Errorf("expected ErrNotRoomMember, got %v", err)
	}
}

func TestAutoEndWhenAllStudentsComplete(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	if err := svc.ActivateSession("AB12CD"); err != nil {
		t.Fatalf("ActivateSession() error: %v", err)
	}

	if _, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s1", Progress: floatPtr(100), Status: models.ProgressStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateProgress(s1) error: %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if session.Status != models.SessionStatusActive {
		t.Fatalf("session should stay active while s2 is unfinished, got %q", session.Status)
	}

	if _, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s2", Progress: floatPtr(100), Status: models.ProgressStatusCompleted,
	}); err != nil {
		t.Fatalf("UpdateProgress(s2) error: %v", err)
	}

	session, _ = sessions.GetByCode("AB12CD")
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("session should auto-end once every student completes, got %q", session.Status)
	}
}

func TestGetSessionExpiresStaleCountdown(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}

	// A countdown abandoned 15 minutes ago is past the 10-minute grace
	svc.now = func() time.Time { return time.Now().Add(15 * time.Minute) }

	_, err := svc.GetSession("AB12CD")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if session.Status != models.SessionStatusCompleted {
		t.Errorf("expired session should be completed, got %q", session.Status)
	}
}

func TestCanJoin(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		allowLateJoin bool
		wantErr       error
	}{
		{"countdown admits", models.SessionStatusCountdown, false, nil},
		{"active with late join admits", models.SessionStatusActive, true, nil},
		{"active without late join rejects", models.SessionStatusActive, false, ErrLateJoinClosed},
		{"completed rejects", models.SessionStatusCompleted, true, ErrSessionCompleted},
	}

	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &models.LiveSession{
				Status:   tt.status,
				Settings: models.SessionSettings{AllowLateJoin: tt.allowLateJoin},
			}
			err := svc.CanJoin(session)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanJoin() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLeaderboardHiddenBySetting(t *testing.T) {
	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{
		ModuleContent: "Assessment scenario text",
		Settings:      &SessionSettingsRequest{ShowLeaderboard: boolPtr(false)},
	}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	_, visible, err := svc.Leaderboard("AB12CD")
	if err != nil {
		t.Fatalf("Leaderboard() error: %v", err)
	}
	if visible {
		t.Error("leaderboard should be hidden when showLeaderboard is false")
	}

	if s, _ := sessions.GetByCode("AB12CD"); len(s.Leaderboard) == 0 {
		t.Error("board should still be computed internally even when hidden")
	}
}

func TestStartActivitySeedsFullAccuracy(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	session, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"})
	if err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	for id, p := range session.StudentProgress {
		if p.Accuracy != 100 {
			t.Errorf("seeded accuracy for %s = %v, want 100", id, p.Accuracy)
		}
	}
	for _, e := range session.Leaderboard {
		if e.Accuracy != 100 {
			t.Errorf("initial leaderboard accuracy for %s = %v, want 100", e.StudentID, e.Accuracy)
		}
	}
}

func TestLateJoinerStartsAtFullAccuracy(t *testing.T) {
	rooms := newFakeRoomStore(testRoom())
	svc, sessions, _ := newTestService(rooms)

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")
	if err := svc.ActivateSession("AB12CD"); err != nil {
		t.Fatalf("ActivateSession() error: %v", err)
	}

	// s3 joined after the activity started, so only the membership row exists
	rooms.members["room-1"]["s3"] = &models.Membership{RoomID: "room-1", StudentID: "s3", StudentName: "Cara"}

	if _, err := svc.UpdateProgress("AB12CD", models.ProgressUpdate{
		StudentID: "s3", Status: models.ProgressStatusTyping,
	}); err != nil {
		t.Fatalf("UpdateProgress(s3) error: %v", err)
	}

	session, _ := sessions.GetByCode("AB12CD")
	if got := session.StudentProgress["s3"].Accuracy; got != 100 {
		t.Errorf("late joiner accuracy = %v, want 100", got)
	}
}

func TestStartActivityRejectedWhenRoomNotWaiting(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	// The first start flipped the room to active
	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Another scenario text"}); !errors.Is(err, ErrRoomNotWaiting) {
		t.Errorf("expected ErrRoomNotWaiting, got %v", err)
	}
}

func TestUpdateProgressRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		upd  models.ProgressUpdate
	}{
		{"wpm too high", models.ProgressUpdate{StudentID: "s1", WPM: floatPtr(301)}},
		{"wpm negative", models.ProgressUpdate{StudentID: "s1", WPM: floatPtr(-1)}},
		{"accuracy too high", models.ProgressUpdate{StudentID: "s1", Accuracy: floatPtr(101)}},
		{"accuracy negative", models.ProgressUpdate{StudentID: "s1", Accuracy: floatPtr(-5)}},
		{"progress too high", models.ProgressUpdate{StudentID: "s1", Progress: floatPtr(250)}},
		{"position negative", models.ProgressUpdate{StudentID: "s1", CurrentPosition: intPtr(-1)}},
	}

	svc, sessions, _ := newTestService(newFakeRoomStore(testRoom()))
	if _, err := svc.StartActivity("AB12CD", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateProgress("AB12CD", tt.upd); err == nil {
				t.Error("expected range validation error, got nil")
			}
		})
	}

	// Rejected updates must leave the stored progress untouched
	session, _ := sessions.GetByCode("AB12CD")
	if got := session.StudentProgress["s1"].WPM; got != 0 {
		t.Errorf("stored wpm = %v, want 0 after rejected updates", got)
	}
}

func TestStartActivityPartialSettingsKeepDefaults(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	session, err := svc.StartActivity("AB12CD", StartActivityRequest{
		ModuleContent: "Assessment scenario text",
		Settings:      &SessionSettingsRequest{ShowLeaderboard: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("StartActivity() error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	if session.Settings.ShowLeaderboard {
		t.Error("showLeaderboard should be overridden to false")
	}
	if !session.Settings.AutoEndAfterCompletion {
		t.Error("autoEndAfterCompletion should keep its default true")
	}
	if session.Settings.GameMode != "timed" {
		t.Errorf("gameMode = %q, want default timed", session.Settings.GameMode)
	}
	if session.Settings.Difficulty != "medium" {
		t.Errorf("difficulty = %q, want default medium", session.Settings.Difficulty)
	}
}

func TestStartActivityRejectsUnknownSettingValues(t *testing.T) {
	tests := []struct {
		name     string
		settings SessionSettingsRequest
	}{
		{"bad game mode", SessionSettingsRequest{GameMode: strPtr("marathon")}},
		{"bad difficulty", SessionSettingsRequest{Difficulty: strPtr("brutal")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(newFakeRoomStore(testRoom()))
			if _, err := svc.StartActivity("AB12CD", StartActivityRequest{
				ModuleContent: "Assessment scenario text",
				Settings:      &tt.settings,
			}); err == nil {
				t.Error("expected settings validation error, got nil")
			}
		})
	}
}

func TestSessionLookupNormalizesRoomCode(t *testing.T) {
	svc, _, _ := newTestService(newFakeRoomStore(testRoom()))

	if _, err := svc.StartActivity("ab12cd", StartActivityRequest{ModuleContent: "Assessment scenario text"}); err != nil {
		t.Fatalf("StartActivity(lowercase) error: %v", err)
	}
	defer svc.DropSession("AB12CD")

	if _, err := svc.GetSession(" ab12cd "); err != nil {
		t.Errorf("GetSession(lowercase) error: %v", err)
	}
	if _, err := svc.UpdateProgress("ab12cd", models.ProgressUpdate{StudentID: "s1", WPM: floatPtr(42)}); err != nil {
		t.Errorf("UpdateProgress(lowercase) error: %v", err)
	}
	if _, _, err := svc.Leaderboard("Ab12Cd"); err != nil {
		t.Errorf("Leaderboard(mixed case) error: %v", err)
	}
}
