package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/primatebot/app/accounts"
	"github.com/m3rciful/primatebot/app/classifier"
	"github.com/m3rciful/primatebot/app/storage"
	coreconfig "github.com/m3rciful/primatebot/core/config"
)

// fakeContext implements the handful of tele.Context methods the
// handlers touch; everything else panics via the embedded nil interface.
type fakeContext struct {
	tele.Context

	chat    *tele.Chat
	message *tele.Message
	text    string
	data    map[string]any
	sent    []string
}

func newFakeContext(chatID int64) *fakeContext {
	return &fakeContext{
		chat: &tele.Chat{ID: chatID},
		data: make(map[string]any),
	}
}

func (f *fakeContext) Chat() *tele.Chat       { return f.chat }
func (f *fakeContext) Sender() *tele.User     { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Message() *tele.Message { return f.message }
func (f *fakeContext) Text() string           { return f.text }
func (f *fakeContext) Update() tele.Update    { return tele.Update{} }
func (f *fakeContext) Get(key string) any     { return f.data[key] }
func (f *fakeContext) Set(key string, v any)  { f.data[key] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeModel struct {
	pred classifier.Prediction
	err  error
}

func (m fakeModel) Classify(context.Context, string) (classifier.Prediction, error) {
	return m.pred, m.err
}

type fakeFiles struct{}

func (fakeFiles) File(*tele.File) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("jpegbytes"))), nil
}

func newTestApp(t *testing.T, model classifier.Classifier) *App {
	t.Helper()
	store := storage.NewWithBackend(storage.NewMemoryBackend(), "users_db.json")
	svc := accounts.NewService(context.Background(), store, 4)
	app := New(&coreconfig.Config{}, svc, model)
	app.files = fakeFiles{}
	return app
}

func photoContext(chatID int64) *fakeContext {
	c := newFakeContext(chatID)
	c.message = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "f1"}}}
	return c
}

func TestStartResetsSession(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))
	app.accounts.AwaitImage(ctx, 100)

	c := newFakeContext(100)
	require.NoError(t, app.handleStart(c))
	assert.Equal(t, msgStart, c.lastSent())

	acc, _ := app.accounts.Get(100)
	assert.False(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
	assert.True(t, acc.Registered())
}

func TestRegisterLoginPredictScenario(t *testing.T) {
	app := newTestApp(t, fakeModel{pred: classifier.Prediction{Label: classifier.LabelMonkey, Confidence: 0.93}})
	conv := conversation{app: app}

	// /register
	c := newFakeContext(100)
	require.NoError(t, app.handleRegister(c))
	assert.Equal(t, msgRegisterPrompt, c.lastSent())
	assert.True(t, conv.InProgress(100))

	// password
	c = newFakeContext(100)
	c.text = "secret1"
	require.NoError(t, conv.HandleText(c))
	assert.Equal(t, msgRegistered, c.lastSent())
	assert.False(t, conv.InProgress(100))

	// /predict before login
	c = newFakeContext(100)
	require.NoError(t, app.handlePredict(c))
	assert.Equal(t, msgPredictNeedLogin, c.lastSent())

	// /login with the wrong password
	c = newFakeContext(100)
	require.NoError(t, app.handleLogin(c))
	assert.Equal(t, msgLoginPrompt, c.lastSent())
	c = newFakeContext(100)
	c.text = "wrong"
	require.NoError(t, conv.HandleText(c))
	assert.Equal(t, msgLoginFail, c.lastSent())

	// /login with the right password
	c = newFakeContext(100)
	require.NoError(t, app.handleLogin(c))
	c = newFakeContext(100)
	c.text = "secret1"
	require.NoError(t, conv.HandleText(c))
	assert.Equal(t, msgLoginOK, c.lastSent())

	// /predict arms the photo state
	c = newFakeContext(100)
	require.NoError(t, app.handlePredict(c))
	assert.Equal(t, msgPredictPrompt, c.lastSent())
	assert.Equal(t, accounts.StateAwaitImageForPredict, app.accounts.State(100))

	// photo gets classified and the state is consumed
	p := photoContext(100)
	require.NoError(t, app.handlePhoto(p))
	assert.Equal(t, fmt.Sprintf(msgPredictionFormat, classifier.LabelMonkey, 93.0), p.lastSent())
	assert.Equal(t, accounts.StateNone, app.accounts.State(100))
}

func TestDoubleRegisterKeepsAccount(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	conv := conversation{app: app}
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))

	c := newFakeContext(100)
	require.NoError(t, app.handleRegister(c))
	c = newFakeContext(100)
	c.text = "other"
	require.NoError(t, conv.HandleText(c))
	assert.Equal(t, msgAlreadyRegistered, c.lastSent())

	acc, _ := app.accounts.Get(100)
	assert.True(t, acc.LoggedIn)
	assert.True(t, accounts.VerifyPassword("secret1", *acc.PasswordHash))
}

func TestPhotoWithoutPredict(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))

	p := photoContext(100)
	require.NoError(t, app.handlePhoto(p))
	assert.Equal(t, msgPhotoUnexpected, p.lastSent())

	// an unexpected photo does not disturb the session
	acc, _ := app.accounts.Get(100)
	assert.True(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
}

func TestPhotoLoggedOut(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	ctx := context.Background()

	// armed state without a session
	app.accounts.AwaitImage(ctx, 100)

	p := photoContext(100)
	require.NoError(t, app.handlePhoto(p))
	assert.Equal(t, msgPhotoNeedLogin, p.lastSent())
	assert.Equal(t, accounts.StateNone, app.accounts.State(100))
}

func TestPhotoModelUnavailable(t *testing.T) {
	app := newTestApp(t, fakeModel{err: classifier.ErrUnavailable})
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))
	app.accounts.AwaitImage(ctx, 100)

	p := photoContext(100)
	require.NoError(t, app.handlePhoto(p))
	assert.Equal(t, msgModelUnavailable, p.lastSent())
	assert.Equal(t, accounts.StateNone, app.accounts.State(100))
}

func TestPhotoClassifierError(t *testing.T) {
	app := newTestApp(t, fakeModel{err: fmt.Errorf("boom")})
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))
	app.accounts.AwaitImage(ctx, 100)

	p := photoContext(100)
	require.NoError(t, app.handlePhoto(p))
	assert.Equal(t, msgPhotoError, p.lastSent())
	assert.Equal(t, accounts.StateNone, app.accounts.State(100))
}

func TestCancelAndLogout(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	ctx := context.Background()

	_, err := app.accounts.CompleteRegistration(ctx, 100, "secret1")
	require.NoError(t, err)
	require.True(t, app.accounts.CompleteLogin(ctx, 100, "secret1"))
	app.accounts.BeginLogin(ctx, 100)

	c := newFakeContext(100)
	require.NoError(t, app.handleCancel(c))
	assert.Equal(t, msgCancelled, c.lastSent())
	acc, _ := app.accounts.Get(100)
	assert.True(t, acc.LoggedIn)

	c = newFakeContext(100)
	require.NoError(t, app.handleLogout(c))
	assert.Equal(t, msgLogout, c.lastSent())
	acc, _ = app.accounts.Get(100)
	assert.False(t, acc.LoggedIn)
}

func TestLogoutAsFirstEvent(t *testing.T) {
	app := newTestApp(t, fakeModel{})

	c := newFakeContext(500)
	require.NoError(t, app.handleLogout(c))
	assert.Equal(t, msgLogout, c.lastSent())

	// the record exists after any event, /logout included
	acc, ok := app.accounts.Get(500)
	require.True(t, ok)
	assert.False(t, acc.LoggedIn)
	assert.Equal(t, accounts.StateNone, acc.State)
}

func TestFallbacks(t *testing.T) {
	app := newTestApp(t, fakeModel{})

	c := newFakeContext(100)
	c.text = "hello"
	require.NoError(t, app.handleTextFallback(c))
	assert.Equal(t, msgUnknownCommand, c.lastSent())

	c = newFakeContext(100)
	require.NoError(t, app.handleMediaFallback(c))
	assert.Equal(t, msgUseCommands, c.lastSent())

	// fallbacks still create the account record
	_, ok := app.accounts.Get(100)
	assert.True(t, ok)
}

func TestConversationUnknownText(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	conv := conversation{app: app}

	assert.False(t, conv.InProgress(100))

	c := newFakeContext(100)
	c.text = "что это"
	require.NoError(t, conv.HandleText(c))
	assert.Equal(t, msgUnknownCommand, c.lastSent())
}

func TestRegistryDeclaresAllCommands(t *testing.T) {
	app := newTestApp(t, fakeModel{})
	reg := app.Registry()

	for _, cmd := range []string{"/start", "/register", "/login", "/predict", "/logout", "/cancel", "/stats"} {
		_, _, ok := reg.LookupCommand(cmd)
		assert.True(t, ok, cmd)
	}

	// admin command stays out of the public menu
	for _, cmd := range reg.ListCommands(true) {
		assert.NotEqual(t, "/stats", cmd.Text)
	}
	assert.NotNil(t, reg.TextFallback())
	assert.NotNil(t, reg.MediaFallback())
}
