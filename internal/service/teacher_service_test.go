package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"nursescript/internal/models"
)

type fakeTeacherStore struct {
	teachers map[string]*models.Teacher
	roster   map[string][]string
}

func newFakeTeacherStore() *fakeTeacherStore {
	return &fakeTeacherStore{
		teachers: make(map[string]*models.Teacher),
		roster:   make(map[string][]string),
	}
}

func (f *fakeTeacherStore) Create(t *models.Teacher) error {
	clone := *t
	f.teachers[t.ID] = &clone
	return nil
}

func (f *fakeTeacherStore) GetByID(id string) (*models.Teacher, error) {
	return f.teachers[id], nil
}

func (f *fakeTeacherStore) GetByAuthUID(authUID string) (*models.Teacher, error) {
	for _, t := range f.teachers {
		if t.AuthUID != "" && t.AuthUID == authUID {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTeacherStore) GetByEmail(email string) (*models.Teacher, error) {
	for _, t := range f.teachers {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTeacherStore) List() ([]models.Teacher, error) {
	var out []models.Teacher
	for _, t := range f.teachers {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTeacherStore) Update(t *models.Teacher) error {
	clone := *t
	f.teachers[t.ID] = &clone
	return nil
}

func (f *fakeTeacherStore) Delete(id string) error {
	delete(f.teachers, id)
	delete(f.roster, id)
	return nil
}

func (f *fakeTeacherStore) AddStudents(teacherID string, studentIDs []string) (int, error) {
	added := 0
	for _, id := range studentIDs {
		dup := false
		for _, existing := range f.roster[teacherID] {
			if existing == id {
				dup = true
				break
			}
		}
		if !dup {
			f.roster[teacherID] = append(f.roster[teacherID], id)
			added++
		}
	}
	return added, nil
}

func (f *fakeTeacherStore) RemoveStudent(teacherID, studentID string) error {
	kept := f.roster[teacherID][:0]
	for _, id := range f.roster[teacherID] {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	f.roster[teacherID] = kept
	return nil
}

func (f *fakeTeacherStore) StudentIDs(teacherID string) ([]string, error) {
	return f.roster[teacherID], nil
}

type fakeRosterUsers struct {
	users map[string]*models.User
}

func (f *fakeRosterUsers) GetByIDs(ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeRosterUsers) Search(term string, limit int) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if strings.Contains(u.Name, term) || strings.Contains(u.Email, term) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []string
	fail error
}

func (f *fakeMailer) SendTeacherWelcomeEmail(ctx context.Context, toEmail, toName, tempPassword string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func newTeacherService(mailer *fakeMailer) (*TeacherService, *fakeTeacherStore) {
	store := newFakeTeacherStore()
	users := &fakeRosterUsers{users: map[string]*models.User{
		"s1": {ID: "s1", Name: "Ana Cruz", Email: "ana@example.edu", UserType: "student"},
		"s2": {ID: "s2", Name: "Ben Reyes", Email: "ben@example.edu", UserType: "student"},
	}}
	return NewTeacherService(store, users, mailer), store
}

func TestCreateTeacherHashesTempPassword(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := newTeacherService(mailer)

	result, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{
		Name:  "Prof. Reyes",
		Email: "Reyes@Example.edu",
	})
	if err != nil {
		t.Fatalf("CreateTeacher() error: %v", err)
	}

	if result.TempPassword == "" {
		t.Fatal("temp password missing from creation result")
	}
	if !result.EmailSent {
		t.Error("expected emailSent true")
	}
	if result.Teacher.Email != "reyes@example.edu" {
		t.Errorf("email not normalized: %q", result.Teacher.Email)
	}

	stored := store.teachers[result.Teacher.ID]
	if stored.TempPasswordHash == result.TempPassword {
		t.Error("temp password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.TempPasswordHash), []byte(result.TempPassword)); err != nil {
		t.Errorf("stored hash does not match issued password: %v", err)
	}
}

func TestCreateTeacherEmailFailureDoesNotAbort(t *testing.T) {
	mailer := &fakeMailer{fail: errors.New("ses unavailable")}
	svc, store := newTeacherService(mailer)

	result, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{
		Name:  "Prof. Reyes",
		Email: "reyes@example.edu",
	})
	if err != nil {
		t.Fatalf("CreateTeacher() should tolerate email failure, got: %v", err)
	}

	if result.EmailSent {
		t.Error("emailSent should be false")
	}
	if result.EmailError == "" {
		t.Error("emailError should carry the failure")
	}
	if _, ok := store.teachers[result.Teacher.ID]; !ok {
		t.Error("account should exist despite the email failure")
	}
}

func TestCreateTeacherDuplicateEmail(t *testing.T) {
	svc, _ := newTeacherService(&fakeMailer{})

	if _, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{Name: "A", Email: "dup@example.edu"}); err != nil {
		t.Fatalf("first CreateTeacher() error: %v", err)
	}

	_, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{Name: "B", Email: "dup@example.edu"})
	if !errors.Is(err, ErrTeacherExists) {
		t.Errorf("expected ErrTeacherExists, got %v", err)
	}
}

func TestLookupChain(t *testing.T) {
	svc, store := newTeacherService(&fakeMailer{})

	store.Create(&models.Teacher{ID: "t1", AuthUID: "legacy-99", Name: "Prof. Cruz", Email: "cruz@example.edu"})

	for _, identifier := range []string{"t1", "legacy-99", "cruz@example.edu"} {
		teacher, err := svc.Lookup(identifier)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", identifier, err)
			continue
		}
		if teacher.ID != "t1" {
			t.Errorf("Lookup(%q) = %s, want t1", identifier, teacher.ID)
		}
	}

	if _, err := svc.Lookup("unknown"); !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("expected ErrTeacherNotFound, got %v", err)
	}
}

func TestRosterAddIsIdempotent(t *testing.T) {
	svc, store := newTeacherService(&fakeMailer{})
	store.Create(&models.Teacher{ID: "t1", Name: "Prof. Cruz", Email: "cruz@example.edu", IsActive: true})

	added, err := svc.AddStudents("t1", []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("AddStudents() error: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}

	added, err = svc.AddStudents("t1", []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("second AddStudents() error: %v", err)
	}
	if added != 0 {
		t.Errorf("re-adding should add 0, got %d", added)
	}

	students, err := svc.Students("t1")
	if err != nil {
		t.Fatalf("Students() error: %v", err)
	}
	if len(students) != 2 {
		t.Errorf("expected 2 roster students, got %d", len(students))
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, store := newTeacherService(&fakeMailer{})
	store.Create(&models.Teacher{ID: "t1", Name: "Prof. Cruz", Email: "cruz@example.edu", Institution: "State U", IsActive: true})

	newPhone := "555-0101"
	updated, err := svc.UpdateProfile("t1", UpdateProfileRequest{Phone: &newPhone})
	if err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}

	if updated.Phone != "555-0101" {
		t.Errorf("phone = %q, want 555-0101", updated.Phone)
	}
	if updated.Institution != "State U" {
		t.Errorf("unset fields must be preserved, institution = %q", updated.Institution)
	}
}
