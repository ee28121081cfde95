package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/primatebot/app/accounts"
	"github.com/m3rciful/primatebot/app/storage"
)

const testCost = 4

func newService(t *testing.T) (*accounts.Service, *storage.SnapshotStore) {
	t.Helper()
	store := storage.NewWithBackend(storage.NewMemoryBackend(), "users_db.json")
	return accounts.NewService(context.Background(), store, testCost), store
}

func TestRecordCreatedOnFirstEvent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, ok := svc.Get(100)
	assert.False(t, ok)

	svc.Ensure(ctx, 100)
	acc, ok := svc.Get(100)
	require.True(t, ok)
	assert.False(t, acc.LoggedIn)
	assert.False(t, acc.Registered())
	assert.Equal(t, accounts.StateNone, acc.State)
}

func TestRegistrationFlow(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	svc.BeginRegistration(ctx, 100)
	assert.Equal(t, accounts.StateAwaitRegisterPass, svc.State(100))

	ok, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, accounts.StateNone, svc.State(100))

	acc, _ := svc.Get(100)
	require.True(t, acc.Registered())
	assert.False(t, acc.LoggedIn)

	// mutation persisted the full snapshot
	table, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, table, "100")
	assert.True(t, table["100"].Registered())
}

func TestDoubleRegistrationKeepsHash(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	first, _ := svc.Get(100)

	assert.True(t, svc.CompleteLogin(ctx, 100, "secret1"))

	svc.BeginRegistration(ctx, 100)
	ok, err := svc.CompleteRegistration(ctx, 100, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	acc, _ := svc.Get(100)
	assert.Equal(t, *first.PasswordHash, *acc.PasswordHash)
	// a rejected re-registration does not end the session
	assert.True(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
}

func TestLoginFlow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// login before registration never succeeds
	svc.BeginLogin(ctx, 100)
	assert.False(t, svc.CompleteLogin(ctx, 100, "secret1"))
	assert.Equal(t, accounts.StateNone, svc.State(100))

	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)

	svc.BeginLogin(ctx, 100)
	assert.False(t, svc.CompleteLogin(ctx, 100, "wrong"))
	acc, _ := svc.Get(100)
	assert.False(t, acc.LoggedIn)

	svc.BeginLogin(ctx, 100)
	assert.True(t, svc.CompleteLogin(ctx, 100, "secret1"))
	acc, _ = svc.Get(100)
	assert.True(t, acc.LoggedIn)
}

func TestCancelPreservesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, svc.CompleteLogin(ctx, 100, "secret1"))

	svc.AwaitImage(ctx, 100)
	svc.Cancel(ctx, 100)

	acc, _ := svc.Get(100)
	assert.Equal(t, accounts.StateNone, acc.State)
	assert.True(t, acc.LoggedIn)
	assert.True(t, acc.Registered())
}

func TestResetEndsSessionKeepsHash(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, svc.CompleteLogin(ctx, 100, "secret1"))
	svc.AwaitImage(ctx, 100)

	svc.Reset(ctx, 100)

	acc, _ := svc.Get(100)
	assert.False(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
	assert.True(t, acc.Registered())
}

func TestLogout(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// logout as the very first event still creates the record
	svc.Logout(ctx, 100)
	acc, ok := svc.Get(100)
	require.True(t, ok)
	assert.False(t, acc.LoggedIn)

	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, svc.CompleteLogin(ctx, 100, "secret1"))

	svc.Logout(ctx, 100)
	acc, _ = svc.Get(100)
	assert.False(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
	assert.True(t, acc.Registered())
}

func TestStats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	svc.Ensure(ctx, 1)
	_, err := svc.CompleteRegistration(ctx, 2, "a")
	require.NoError(t, err)
	_, err = svc.CompleteRegistration(ctx, 3, "b")
	require.NoError(t, err)
	require.True(t, svc.CompleteLogin(ctx, 3, "b"))

	st := svc.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Registered)
	assert.Equal(t, 1, st.LoggedIn)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (map[string]*accounts.Account, error) {
	return make(map[string]*accounts.Account), errors.New("backend down")
}

func (failingStore) Save(context.Context, map[string]*accounts.Account) error {
	return errors.New("backend down")
}

func TestServiceFailOpen(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewService(ctx, failingStore{}, testCost)

	// a broken store never blocks the dialogue
	ok, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, svc.CompleteLogin(ctx, 100, "secret1"))
}

func TestServiceReloadRoundTrip(t *testing.T) {
	store := storage.NewWithBackend(storage.NewMemoryBackend(), "users_db.json")
	ctx := context.Background()

	svc := accounts.NewService(ctx, store, testCost)
	_, err := svc.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, svc.CompleteLogin(ctx, 100, "secret1"))
	svc.AwaitImage(ctx, 100)

	reloaded := accounts.NewService(ctx, store, testCost)
	acc, ok := reloaded.Get(100)
	require.True(t, ok)
	assert.True(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateAwaitImageForPredict, acc.State)
	assert.True(t, reloaded.CompleteLogin(ctx, 100, "secret1"))
}
