package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/primatebot/app/accounts"
)

func sampleTable() map[string]*accounts.Account {
	hash := "$2a$04$abcdefghijklmnopqrstuv"
	return map[string]*accounts.Account{
		"100": {PasswordHash: &hash, LoggedIn: true, State: accounts.StateAwaitImageForPredict},
		"200": {},
	}
}

func TestEncodeFormat(t *testing.T) {
	data, err := Encode(sampleTable())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "    \"100\": {")
	assert.Contains(t, text, "\"logged_in\": true")
	assert.Contains(t, text, "\"state\": \"awaiting_image_for_predict\"")
	// empty records keep explicit nulls
	assert.Contains(t, text, "\"password_hash\": null")
	assert.Contains(t, text, "\"state\": null")
	assert.False(t, strings.Contains(text, "\\u"))
}

func TestEncodeDecodeStable(t *testing.T) {
	first, err := Encode(sampleTable())
	require.NoError(t, err)

	decoded, err := Decode(first)
	require.NoError(t, err)

	second, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeEmptyAndUnknownState(t *testing.T) {
	table, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, table)

	table, err = Decode([]byte(`{"1": {"password_hash": null, "logged_in": false, "state": "weird"}}`))
	require.NoError(t, err)
	require.Contains(t, table, "1")
	assert.Equal(t, accounts.StateNone, table["1"].State)
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store := NewWithBackend(NewMemoryBackend(), "users_db.json")
	ctx := context.Background()

	// first run: nothing stored yet
	table, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)

	require.NoError(t, store.Save(ctx, sampleTable()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded["100"].LoggedIn)
	assert.Equal(t, accounts.StateAwaitImageForPredict, loaded["100"].State)
}

func TestSnapshotStoreScratchCleanup(t *testing.T) {
	store := NewWithBackend(NewMemoryBackend(), "scratch_cleanup_test.json")
	require.NoError(t, store.Save(context.Background(), sampleTable()))

	_, err := os.Stat(filepath.Join(os.TempDir(), "scratch_cleanup_test.json"))
	assert.True(t, os.IsNotExist(err))
}

type brokenBackend struct{}

func (brokenBackend) Name() string                          { return "broken" }
func (brokenBackend) Fetch(context.Context) ([]byte, error) { return nil, errors.New("down") }
func (brokenBackend) Publish(context.Context, string) error { return errors.New("down") }

func TestSnapshotStoreFailOpen(t *testing.T) {
	store := NewWithBackend(brokenBackend{}, "scratch_failopen_test.json")
	ctx := context.Background()

	table, err := store.Load(ctx)
	assert.Error(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)

	// publish failure still removes the scratch file
	assert.Error(t, store.Save(ctx, sampleTable()))
	_, statErr := os.Stat(filepath.Join(os.TempDir(), "scratch_failopen_test.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewWithBackend(newFileBackend(dir, "users_db.json"), "users_db.json")
	ctx := context.Background()

	table, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)

	require.NoError(t, store.Save(ctx, sampleTable()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	// published file is the encoded document itself
	data, err := os.ReadFile(filepath.Join(dir, "users_db.json"))
	require.NoError(t, err)
	expected, err := Encode(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, expected, data)
}
