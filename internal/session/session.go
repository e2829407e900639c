// Package session tracks who is logged in on the device and what they see.
package session

import (
	"errors"
	"fmt"

	"attendbot/internal/capture"
	"attendbot/internal/directory"
	"attendbot/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for any failed login, whether or not the username exists.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Session struct {
	ID      uuid.UUID
	user    models.User
	view    models.View
	capture *capture.Session
}

// Login authenticates against the directory and opens a session on the role's default view.
func Login(dir *directory.Directory, username, password string) (*Session, error) {
	user, ok := dir.Authenticate(username, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &Session{
		ID:      uuid.New(),
		user:    user,
		view:    user.Role.DefaultView(),
		capture: &capture.Session{},
	}, nil
}

// Logout discards the session state, including any unsubmitted capture.
func (s *Session) Logout() {
	if s.capture != nil {
		s.capture.Clear()
	}
	*s = Session{}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.ID != uuid.Nil
}

// Name is the display name of the logged-in user.
func (s *Session) Name() string {
	return s.user.Name
}

func (s *Session) Role() models.Role {
	return s.user.Role
}

func (s *Session) User() models.User {
	return s.user
}

func (s *Session) View() models.View {
	return s.view
}

// CanSwitchView reports whether SwitchView may be offered to this user.
func (s *Session) CanSwitchView() bool {
	return s.user.Role == models.RoleAdmin
}

// SwitchView changes the active view. Only admins have a view toggle; calling
// it for anyone else is a bug in the caller.
func (s *Session) SwitchView(view models.View) {
	if !s.CanSwitchView() {
		panic(fmt.Sprintf("session: SwitchView called for role %q", s.user.Role))
	}
	if !view.Valid() {
		panic(fmt.Sprintf("session: invalid view %q", view))
	}
	s.view = view
}

// Capture returns the capture session owned by this login.
func (s *Session) Capture() *capture.Session {
	return s.capture
}
