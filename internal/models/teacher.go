package models

import "time"

// Teacher is a staff account created by an administrator. The primary key
// is the identity provider's subject id; auth_uid is a legacy lookup field
// kept for accounts imported from the previous deployment.
type Teacher struct {
	ID               string    `json:"id"`
	AuthUID          string    `json:"-"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Institution      string    `json:"institution,omitempty"`
	Department       string    `json:"department,omitempty"`
	EmployeeID       string    `json:"employeeId,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	IsActive         bool      `json:"isActive"`
	TempPasswordHash string    `json:"-"`
	PasswordChanged  bool      `json:"passwordChanged"`
	CreatedBy        string    `json:"createdBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// User is a platform account resolved by the identity provider's subject id
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  string    `json:"userType"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}
