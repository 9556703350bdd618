package domain

import (
	"strings"

	"github.com/sahilchouksey/learnhub/model"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// NewUser validates registration input and returns an unsaved user.
// The caller is responsible for hashing the password. An empty role means STUDENT.
func NewUser(email, password string, role model.Role) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooWeak
	}

	if role == "" {
		role = model.RoleStudent
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	return &model.User{
		Email: strings.ToLower(email),
		Role:  role,
	}, nil
}

// CanCreateLesson reports whether the user may author lessons
func CanCreateLesson(u *model.User) bool {
	return u != nil && u.Role == model.RoleAdmin
}

// CanManageUsers reports whether the user may administer other users
func CanManageUsers(u *model.User) bool {
	return u != nil && u.Role == model.RoleAdmin
}

// CanEnroll reports whether the user may be enrolled in lessons
func CanEnroll(u *model.User) bool {
	return u != nil && u.Role == model.RoleStudent
}
