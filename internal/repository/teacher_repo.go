package repository

import (
	"database/sql"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// TeacherRepository handles database operations for teacher accounts and
// their student rosters
type TeacherRepository struct {
	db *database.DB
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db *database.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Create inserts a teacher account
func (r *TeacherRepository) Create(t *models.Teacher) error {
	query := `
		INSERT INTO teachers (id, auth_uid, name, email, institution, department, employee_id,
		                      phone, is_active, temp_password_hash, password_changed, created_by,
		                      created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.Exec(query,
		t.ID, t.AuthUID, t.Name, t.Email, t.Institution, t.Department, t.EmployeeID,
		t.Phone, t.IsActive, t.TempPasswordHash, t.PasswordChanged, t.CreatedBy,
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

const teacherColumns = `id, COALESCE(auth_uid, ''), name, email, COALESCE(institution, ''),
       COALESCE(department, ''), COALESCE(employee_id, ''), COALESCE(phone, ''), is_active,
       COALESCE(temp_password_hash, ''), password_changed, COALESCE(created_by, ''),
       created_at, updated_at`

func scanTeacher(scan func(dest ...interface{}) error) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := scan(
		&t.ID, &t.AuthUID, &t.Name, &t.Email, &t.Institution,
		&t.Department, &t.EmployeeID, &t.Phone, &t.IsActive,
		&t.TempPasswordHash, &t.PasswordChanged, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeacherRepository) getOne(query string, arg interface{}) (*models.Teacher, error) {
	t, err := scanTeacher(r.db.QueryRow(query, arg).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetByID retrieves a teacher by primary key. Returns nil when absent.
func (r *TeacherRepository) GetByID(id string) (*models.Teacher, error) {
	return r.getOne("SELECT "+teacherColumns+" FROM teachers WHERE id = ?", id)
}

// GetByAuthUID retrieves a teacher by the legacy auth uid. Returns nil when
// absent.
func (r *TeacherRepository) GetByAuthUID(authUID string) (*models.Teacher, error) {
	return r.getOne("SELECT "+teacherColumns+" FROM teachers WHERE auth_uid = ?", authUID)
}

// GetByEmail retrieves a teacher by email. Returns nil when absent.
func (r *TeacherRepository) GetByEmail(email string) (*models.Teacher, error) {
	return r.getOne("SELECT "+teacherColumns+" FROM teachers WHERE email = ?", email)
}

// List retrieves all teacher accounts, newest first
func (r *TeacherRepository) List() ([]models.Teacher, error) {
	rows, err := r.db.Query("SELECT " + teacherColumns + " FROM teachers ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []models.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows.Scan)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, *t)
	}

	return teachers, rows.Err()
}

// Update writes the editable profile fields of a teacher
func (r *TeacherRepository) Update(t *models.Teacher) error {
	query := `
		UPDATE teachers
		SET name = ?, email = ?, institution = ?, department = ?, employee_id = ?,
		    phone = ?, is_active = ?, password_changed = ?, updated_at = ?
		WHERE id = ?
	`
	t.UpdatedAt = time.Now().UTC()
	_, err := r.db.Exec(query,
		t.Name, t.Email, t.Institution, t.Department, t.EmployeeID,
		t.Phone, t.IsActive, t.PasswordChanged, t.UpdatedAt, t.ID,
	)
	return err
}

// Delete removes a teacher; roster rows cascade via the foreign key
func (r *TeacherRepository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM teachers WHERE id = ?", id)
	return err
}

// AddStudents appends student ids to a teacher's roster, skipping ids
// already present.
func (r *TeacherRepository) AddStudents(teacherID string, studentIDs []string) (int, error) {
	added := 0
	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		var count int
		err := r.db.QueryRow(
			"SELECT COUNT(*) FROM teacher_students WHERE teacher_id = ? AND student_id = ?",
			teacherID, studentID,
		).Scan(&count)
		if err != nil {
			return added, err
		}
		if count > 0 {
			continue
		}
		_, err = r.db.Exec(
			"INSERT INTO teacher_students (teacher_id, student_id, added_at) VALUES (?, ?, ?)",
			teacherID, studentID, now,
		)
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// RemoveStudent deletes one roster row
func (r *TeacherRepository) RemoveStudent(teacherID, studentID string) error {
	_, err := r.db.Exec(
		"DELETE FROM teacher_students WHERE teacher_id = ? AND student_id = ?",
		teacherID, studentID,
	)
	return err
}

// StudentIDs retrieves the ids on a teacher's roster, oldest first
func (r *TeacherRepository) StudentIDs(teacherID string) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT student_id FROM teacher_students WHERE teacher_id = ? ORDER BY added_at ASC",
		teacherID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
