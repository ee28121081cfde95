package accounts

import (
	"bytes"
	"encoding/json"
)

// SessionState is the per-chat dialogue state persisted between updates.
type SessionState string

const (
	StateNone                 SessionState = ""
	StateAwaitRegisterPass    SessionState = "awaiting_register_password"
	StateAwaitLoginPass       SessionState = "awaiting_login_password"
	StateAwaitImageForPredict SessionState = "awaiting_image_for_predict"
)

// MarshalJSON encodes StateNone as JSON null to keep the stored
// snapshot format stable.
func (s SessionState) MarshalJSON() ([]byte, error) {
	if s == StateNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null and normalizes unknown strings to StateNone.
func (s *SessionState) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = StateNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch SessionState(raw) {
	case StateAwaitRegisterPass, StateAwaitLoginPass, StateAwaitImageForPredict:
		*s = SessionState(raw)
	default:
		*s = StateNone
	}
	return nil
}

// Account is a single chat record. Field names and the null mapping for
// password_hash/state are part of the stored snapshot format.
type Account struct {
	PasswordHash *string      `json:"password_hash"`
	LoggedIn     bool         `json:"logged_in"`
	State        SessionState `json:"state"`
}

// Registered reports whether the account has a stored password hash.
func (a *Account) Registered() bool {
	return a != nil && a.PasswordHash != nil && *a.PasswordHash != ""
}

// Clone returns a deep copy safe to hand outside the service lock.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.PasswordHash != nil {
		h := *a.PasswordHash
		cp.PasswordHash = &h
	}
	return &cp
}
