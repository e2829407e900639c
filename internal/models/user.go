package models

import "fmt"

// Role decides which views a user may open.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// View is the dashboard currently on screen.
type View string

const (
	ViewEmployee View = "employee"
	ViewAdmin    View = "admin"
)

func (v View) Valid() bool {
	return v == ViewEmployee || v == ViewAdmin
}

func ParseView(s string) (View, error) {
	v := View(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}

// DefaultView returns the view a freshly logged-in user lands on.
func (r Role) DefaultView() View {
	if r == RoleAdmin {
		return ViewAdmin
	}
	return ViewEmployee
}

type User struct {
	ID         int    `yaml:"id" validate:"required,gt=0"`
	Username   string `yaml:"username" validate:"required"`
	Password   string `yaml:"password" validate:"required"`
	Name       string `yaml:"name" validate:"required"`
	Role       Role   `yaml:"role" validate:"required,oneof=employee admin"`
	Department string `yaml:"department" validate:"required"`
	Email      string `yaml:"email" validate:"omitempty,email"`
}
