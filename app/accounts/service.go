package accounts

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/primatebot/core/logger"
)

// Store persists the full account snapshot. Load returns the last saved
// snapshot; Save replaces it entirely.
type Store interface {
	Load(ctx context.Context) (map[string]*Account, error)
	Save(ctx context.Context, accounts map[string]*Account) error
}

// Stats is an aggregate view over all known accounts.
type Stats struct {
	Total      int
	Registered int
	LoggedIn   int
}

// Service owns the in-memory account table and writes the full snapshot
// back to the store after every mutation. Save failures are logged and
// swallowed so a broken store never breaks the dialogue.
type Service struct {
	mu       sync.Mutex
	accounts map[string]*Account

	store      Store
	bcryptCost int
}

// NewService loads the snapshot from the store. A failed load starts
// the service with an empty table.
func NewService(ctx context.Context, store Store, bcryptCost int) *Service {
	s := &Service{
		accounts:   make(map[string]*Account),
		store:      store,
		bcryptCost: bcryptCost,
	}

	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			logger.Error(ctx, "accounts", "snapshot.load",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		if loaded != nil {
			s.accounts = loaded
		}
	}

	logger.Info(ctx, "accounts", "snapshot.load",
		slog.String("status", "ok"),
		slog.Int("accounts", len(s.accounts)),
	)
	return s
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// save writes the full snapshot while the caller holds the lock.
func (s *Service) save(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.accounts); err != nil {
		logger.Error(ctx, "accounts", "snapshot.save",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Int("accounts", len(s.accounts)),
		)
	}
}

// ensureLocked returns the record for the chat, creating it on first contact.
func (s *Service) ensureLocked(ctx context.Context, chatID int64) *Account {
	k := key(chatID)
	acc, ok := s.accounts[k]
	if !ok {
		acc = &Account{}
		s.accounts[k] = acc
		s.save(ctx)
	}
	return acc
}

// Ensure guarantees a record exists for the chat.
func (s *Service) Ensure(ctx context.Context, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(ctx, chatID)
}

// Get returns a copy of the record, if any.
func (s *Service) Get(chatID int64) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[key(chatID)]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// State returns the current dialogue state for the chat.
func (s *Service) State(chatID int64) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[key(chatID)]; ok {
		return acc.State
	}
	return StateNone
}

// Reset handles /start: the session is logged out and any pending
// dialogue state is dropped. The password hash survives.
func (s *Service) Reset(ctx context.Context, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.ensureLocked(ctx, chatID)
	acc.LoggedIn = false
	acc.State = StateNone
	s.save(ctx)
}

// BeginRegistration puts the chat into the password-prompt state.
func (s *Service) BeginRegistration(ctx context.Context, chatID int64) {
	s.setState(ctx, chatID, StateAwaitRegisterPass)
}

// BeginLogin puts the chat into the login password-prompt state.
func (s *Service) BeginLogin(ctx context.Context, chatID int64) {
	s.setState(ctx, chatID, StateAwaitLoginPass)
}

// AwaitImage arms the chat for the next photo. Callers gate this on
// LoggedIn themselves.
func (s *Service) AwaitImage(ctx context.Context, chatID int64) {
	s.setState(ctx, chatID, StateAwaitImageForPredict)
}

// ClearState drops any pending dialogue state.
func (s *Service) ClearState(ctx context.Context, chatID int64) {
	s.setState(ctx, chatID, StateNone)
}

// Cancel handles /cancel: only the dialogue state is dropped, the login
// session and credentials stay intact.
func (s *Service) Cancel(ctx context.Context, chatID int64) {
	s.setState(ctx, chatID, StateNone)
}

func (s *Service) setState(ctx context.Context, chatID int64, st SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.ensureLocked(ctx, chatID)
	acc.State = st
	s.save(ctx)
}

// Logout ends the session and clears state. Like every other event it
// creates the record on first contact.
func (s *Service) Logout(ctx context.Context, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.ensureLocked(ctx, chatID)
	acc.LoggedIn = false
	acc.State = StateNone
	s.save(ctx)
}

// CompleteRegistration consumes the pending password. A chat that
// already holds a hash is rejected without touching its session; the
// dialogue state is cleared either way.
func (s *Service) CompleteRegistration(ctx context.Context, chatID int64, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.ensureLocked(ctx, chatID)
	acc.State = StateNone

	if acc.Registered() {
		s.save(ctx)
		return false, nil
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		s.save(ctx)
		return false, err
	}
	acc.PasswordHash = &hash
	acc.LoggedIn = false
	s.save(ctx)
	return true, nil
}

// CompleteLogin consumes the pending password and starts a session on a
// match. The dialogue state is cleared on both outcomes.
func (s *Service) CompleteLogin(ctx context.Context, chatID int64, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.ensureLocked(ctx, chatID)
	acc.State = StateNone

	var hash string
	if acc.PasswordHash != nil {
		hash = *acc.PasswordHash
	}
	ok := VerifyPassword(password, hash)
	if ok {
		acc.LoggedIn = true
	}
	s.save(ctx)
	return ok
}

// Stats aggregates account totals for the admin report.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.accounts)}
	for _, acc := range s.accounts {
		if acc.Registered() {
			st.Registered++
		}
		if acc.LoggedIn {
			st.LoggedIn++
		}
	}
	return st
}
