package entity

import (
	"strings"
	"time"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema. Pertenece a una Company y actúa sobre su cadena según su rol.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt, nunca la contraseña plana
	Name         string
	Role         string // admin, contador, auditor
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive indica si el usuario puede iniciar sesión.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// NormalizeEmail deja el email en minúsculas y sin espacios; es la llave de búsqueda del login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
