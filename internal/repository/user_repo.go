package repository

import (
	"database/sql"
	"time"

	"nursescript/internal/database"
	"nursescript/internal/models"
)

// UserRepository handles database operations for platform accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, email, user_type, is_admin, created_at"

func scanUser(scan func(dest ...interface{}) error) (*models.User, error) {
	u := &models.User{}
	err := scan(&u.ID, &u.Name, &u.Email, &u.UserType, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by id. Returns nil when absent.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetByEmail retrieves a user by email. Returns nil when absent.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetByIDs retrieves users for the given ids, preserving nothing about
// order. Missing ids are silently skipped.
func (r *UserRepository) GetByIDs(ids []string) ([]models.User, error) {
	var users []models.User
	for _, id := range ids {
		u, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

// Search finds students whose name or email contains the term
func (r *UserRepository) Search(term string, limit int) ([]models.User, error) {
	query := "SELECT " + userColumns + ` FROM users
		WHERE user_type = 'student' AND (name LIKE ? OR email LIKE ?)
		ORDER BY name ASC LIMIT ?`
	pattern := "%" + term + "%"

	rows, err := r.db.Query(query, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

// Upsert records a user, refreshing name and email on conflict. Called when
// an authenticated request carries identity we have not seen before.
func (r *UserRepository) Upsert(u *models.User) error {
	existing, err := r.GetByID(u.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		_, err := r.db.Exec(
			"INSERT INTO users (id, name, email, user_type, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			u.ID, u.Name, u.Email, u.UserType, u.IsAdmin, u.CreatedAt,
		)
		return err
	}
	_, err = r.db.Exec("UPDATE users SET name = ?, email = ? WHERE id = ?", u.Name, u.Email, u.ID)
	return err
}

// IsAdmin reports whether the user id belongs to an administrator
func (r *UserRepository) IsAdmin(id string) (bool, error) {
	u, err := r.GetByID(id)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsAdmin, nil
}
