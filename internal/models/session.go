package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// SessionIdentity is the decoded content of a verified session token.
type SessionIdentity struct {
	SubjectID string            `json:"subject_id"`
	Role      Role              `json:"role"`
	Claims    map[string]string `json:"claims,omitempty"`
	TokenID   string            `json:"-"`
	IssuedAt  time.Time         `json:"issued_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Claim returns an auxiliary claim copied in at issuance, or "".
func (s *SessionIdentity) Claim(key string) string {
	if s == nil || s.Claims == nil {
		return ""
	}
	return s.Claims[key]
}
