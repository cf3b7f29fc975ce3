package models

import "time"

// OTPEntry is the stored state of an outstanding one-time code for a phone.
// The code itself is never stored, only its bcrypt hash.
type OTPEntry struct {
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e *OTPEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
