package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/notedesk/server/internal/events"
	"github.com/notedesk/server/internal/services"
	"github.com/notedesk/server/internal/session"
	"github.com/notedesk/server/internal/storage"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/internal/store/jsonfile"
	"github.com/notedesk/server/internal/views"
	"github.com/notedesk/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	users map[string]types.User
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (types.User, error) {
	user, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUserStore) GetByGoogleID(_ context.Context, googleID string) (types.User, error) {
	for _, user := range m.users {
		if user.GoogleID != "" && user.GoogleID == googleID {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserStore) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := m.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	m.users[user.Username] = user
	return user, nil
}

func (m *memUserStore) UpdateAvatar(_ context.Context, username, avatarPath string) error {
	user, ok := m.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.AvatarPath = avatarPath
	m.users[username] = user
	return nil
}

// newTestApp wires the full route surface against in-memory stores, a
// temp-dir avatar backend and a JSON-file note store.
func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()

	users := &memUserStore{users: map[string]types.User{}}
	backend, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	avatarService := services.NewAvatarService(storage.NewStorage(backend))
	authService := services.NewAuthService(users, avatarService)

	noteStore, err := jsonfile.Open(filepath.Join(t.TempDir(), "notes.json"))
	require.NoError(t, err)
	noteService := services.NewNoteService(noteStore, events.NewPublisher(nil, ""))

	sessions := session.NewCookieResolver("test-secret", users, false)

	renderer, err := views.New()
	require.NoError(t, err)

	router := chi.NewRouter()
	AuthRouter(router, NewAuthHandler(authService, sessions, renderer))
	NoteRouter(router, NewNoteHandler(noteService, avatarService, renderer), RequireAuth(sessions))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns an HTTP client with a cookie jar that does not
// follow redirects, so tests can assert on them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, targetURL string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.Post(targetURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	return resp
}

func registerForm(t *testing.T, client *http.Client, baseURL, username, password string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("username", username))
	require.NoError(t, writer.WriteField("password", password))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/register", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestRegisterLogsInAndRedirects(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	resp := registerForm(t, client, srv.URL, "alice", "pw1")
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// The register response established a session.
	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice")
}

func TestRegisterDuplicateShowsError(t *testing.T) {
	srv := newTestApp(t)

	resp := registerForm(t, newClient(t), srv.URL, "alice", "pw1")
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = registerForm(t, newClient(t), srv.URL, "alice", "pw2")
	body := readBody(t, resp)
	assert.Contains(t, body, "Username already exists")
}

func TestRegisterWithAvatarServesImage(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("username", "alice"))
	require.NoError(t, writer.WriteField("password", "pw1"))

	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="avatar"; filename="me.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/register", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// The note list renders the stored avatar path, which serves the
	// uploaded bytes.
	resp, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	page := readBody(t, resp)
	start := strings.Index(page, "/avatars/")
	require.GreaterOrEqual(t, start, 0)
	end := strings.IndexByte(page[start:], '"')
	require.Greater(t, end, 0)
	avatarPath := page[start : start+end]

	resp, err = client.Get(srv.URL + avatarPath)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png bytes", readBody(t, resp))
}

func TestRegisterRejectsOversizedAvatar(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("username", "alice"))
	require.NoError(t, writer.WriteField("password", "pw1"))

	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="avatar"; filename="big.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), services.MaxAvatarBytes+1))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/register", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Contains(t, page, "jpeg, png or gif up to 1MB")
}

func TestAvatarServedWithValidatedImageType(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("username", "alice"))
	require.NoError(t, writer.WriteField("password", "pw1"))

	// The filename claims a markup extension; the declared MIME type
	// must win so the stored object can never be served as HTML.
	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="avatar"; filename="evil.html"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("<script>alert(1)</script>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/register", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	page := readBody(t, resp)
	start := strings.Index(page, "/avatars/")
	require.GreaterOrEqual(t, start, 0)
	end := strings.IndexByte(page[start:], '"')
	require.Greater(t, end, 0)
	avatarPath := page[start : start+end]
	assert.True(t, strings.HasSuffix(avatarPath, ".png"), avatarPath)

	resp, err = client.Get(srv.URL + avatarPath)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestLoginOutcomes(t *testing.T) {
	srv := newTestApp(t)
	resp := registerForm(t, newClient(t), srv.URL, "alice", "pw1")
	readBody(t, resp)

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{name: "unknown user", username: "nobody", password: "pw1", wantMsg: "User not found"},
		{name: "wrong password", username: "alice", password: "wrong", wantMsg: "Incorrect password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t)
			resp := postForm(t, client, srv.URL+"/login", url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			body := readBody(t, resp)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.wantMsg)
		})
	}

	t.Run("valid credentials", func(t *testing.T) {
		client := newClient(t)
		resp := postForm(t, client, srv.URL+"/login", url.Values{
			"username": {"alice"},
			"password": {"pw1"},
		})
		readBody(t, resp)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestLogoutDestroysSession(t *testing.T) {
	srv := newTestApp(t)
	client := newClient(t)

	resp := registerForm(t, client, srv.URL, "alice", "pw1")
	readBody(t, resp)

	resp, err := client.Get(srv.URL + "/logout")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The cleared cookie no longer authenticates.
	resp, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestIndexRequiresSession(t *testing.T) {
	srv := newTestApp(t)

	resp, err := newClient(t).Get(srv.URL + "/")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
