package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRecord is the raw user payload the backend returns. The backend sends a
// single display name and its own role vocabulary; SessionFromRecord
// normalizes both.
type UserRecord struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	Role          string     `json:"role,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	EmailVerified bool       `json:"is_email_verified,omitempty"`
	StorageUsed   *int64     `json:"storage_used,omitempty"`
	StorageLimit  *int64     `json:"storage_limit,omitempty"`
}

// Session is the authenticated identity as known to the client. A Session
// exists if and only if the manager is in the authenticated phase.
type Session struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name,omitempty"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	Avatar        string     `json:"avatar,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	EmailVerified bool       `json:"is_email_verified"`
	StorageUsed   *int64     `json:"storage_used,omitempty"`
	StorageLimit  *int64     `json:"storage_limit,omitempty"`
}

// SessionFromRecord maps a raw backend user record to the normalized session
// shape: the display name splits on the first space, the raw role is aliased
// onto the closed set.
func SessionFromRecord(rec UserRecord) (*Session, error) {
	if rec.ID == "" || rec.Email == "" {
		return nil, ErrInvalidUserRecord.WithMetadata(map[string]any{
			"id":    rec.ID,
			"email": rec.Email,
		})
	}

	first, last := splitDisplayName(rec.Name)

	return &Session{
		ID:            rec.ID,
		FirstName:     first,
		LastName:      last,
		Email:         rec.Email,
		Role:          NormalizeRole(rec.Role),
		Avatar:        rec.Avatar,
		LastLogin:     rec.LastLogin,
		EmailVerified: rec.EmailVerified,
		StorageUsed:   rec.StorageUsed,
		StorageLimit:  rec.StorageLimit,
	}, nil
}

// RecordFromSession rebuilds the wire shape from a session, used for the
// cached profile copy the credential store keeps.
func RecordFromSession(s *Session) UserRecord {
	if s == nil {
		return UserRecord{}
	}
	return UserRecord{
		ID:            s.ID,
		Name:          s.FullName(),
		Email:         s.Email,
		Role:          s.Role,
		Avatar:        s.Avatar,
		LastLogin:     s.LastLogin,
		EmailVerified: s.EmailVerified,
		StorageUsed:   s.StorageUsed,
		StorageLimit:  s.StorageLimit,
	}
}

// Merge shallow-merges a backend record into a copy of the session: fields
// absent from the record are retained. The verified flag only ever flips on;
// verification is never revoked client side.
func (s *Session) Merge(rec UserRecord) *Session {
	merged := *s

	if rec.Name != "" {
		merged.FirstName, merged.LastName = splitDisplayName(rec.Name)
	}
	if rec.Email != "" {
		merged.Email = rec.Email
	}
	if rec.Role != "" {
		merged.Role = NormalizeRole(rec.Role)
	}
	if rec.Avatar != "" {
		merged.Avatar = rec.Avatar
	}
	if rec.LastLogin != nil {
		merged.LastLogin = rec.LastLogin
	}
	if rec.EmailVerified {
		merged.EmailVerified = true
	}
	if rec.StorageUsed != nil {
		merged.StorageUsed = rec.StorageUsed
	}
	if rec.StorageLimit != nil {
		merged.StorageLimit = rec.StorageLimit
	}

	return &merged
}

// FullName joins the split name back into the display form.
func (s *Session) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// GetUserUUID parses the user id as a UUID.
func (s *Session) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.ID)
}

// HasUserUUID reports whether GetUserUUID will succeed.
func HasUserUUID(s *Session) bool {
	if s == nil {
		return false
	}
	_, err := s.GetUserUUID()
	return err == nil
}

func (s Session) String() string {
	return fmt.Sprintf("user=%s email=%s role=%s verified=%t", s.ID, s.Email, s.Role, s.EmailVerified)
}

func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
