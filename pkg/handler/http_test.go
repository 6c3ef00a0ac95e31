package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lyricnext/lyricserver/pkg/api"
	"github.com/lyricnext/lyricserver/pkg/session"
	"github.com/lyricnext/lyricserver/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPassword = "hunter2"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	l := zaptest.NewLogger(t)

	storage, err := store.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	return NewHTTP(l,
		store.New(l, storage),
		session.NewStore(l, "test-secret", testPassword),
	)
}

// do runs a request against the handler, carrying the session cookie if set.
func do(t *testing.T, h http.Handler, cookie *http.Cookie, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, buf)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := do(t, h, nil, http.MethodPost, "/api/auth/login", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHTTP_ProtectedRoutesRequireSession(t *testing.T) {
	h := newTestHandler(t)

	routes := [][2]string{
		{http.MethodGet, "/api/lyrics"},
		{http.MethodGet, "/api/lyrics/a.txt"},
		{http.MethodPost, "/api/lyrics"},
		{http.MethodPut, "/api/lyrics/a.txt"},
		{http.MethodDelete, "/api/lyrics/a.txt"},
		{http.MethodPatch, "/api/lyrics/a.txt/rename"},
		{http.MethodGet, "/api/search?q=a"},
	}
	for _, route := range routes {
		w := do(t, h, nil, route[0], route[1], "")
		require.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s", route[0], route[1])

		apiErr := &api.Error{}
		decodeBody(t, w, apiErr)
		assert.NotEmpty(t, apiErr.Message)
	}
}

func TestHTTP_LoginLogoutCycle(t *testing.T) {
	h := newTestHandler(t)

	// protected route fails, then login, then it succeeds, then logout locks it again
	w := do(t, h, nil, http.MethodGet, "/api/lyrics", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := login(t, h)
	w = do(t, h, cookie, http.MethodGet, "/api/lyrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodGet, "/api/lyrics", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHTTP_Login_WrongPassword(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, nil, http.MethodPost, "/api/auth/login", `{"password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	apiErr := &api.Error{}
	decodeBody(t, w, apiErr)
	assert.Equal(t, "wrong password", apiErr.Message)
}

func TestHTTP_Login_MissingPassword(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, nil, http.MethodPost, "/api/auth/login", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Status(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, nil, http.MethodGet, "/api/auth/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	status := &api.StatusResponse{}
	decodeBody(t, w, status)
	assert.False(t, status.Authenticated)

	cookie := login(t, h)
	w = do(t, h, cookie, http.MethodGet, "/api/auth/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, status)
	assert.True(t, status.Authenticated)
}

func TestHTTP_CRUD(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	// create appends the suffix
	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"love","content":"I love you"}`)
	require.Equal(t, http.StatusOK, w.Code)
	created := &api.MessageResponse{}
	decodeBody(t, w, created)
	assert.Equal(t, "love.txt", created.Filename)

	// read back
	w = do(t, h, cookie, http.MethodGet, "/api/lyrics/love.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	lyric := &api.Lyric{}
	decodeBody(t, w, lyric)
	assert.Equal(t, "love.txt", lyric.Filename)
	assert.Equal(t, "I love you", lyric.Content)

	// update in place
	w = do(t, h, cookie, http.MethodPut, "/api/lyrics/love.txt", `{"content":"changed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodGet, "/api/lyrics/love.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, lyric)
	assert.Equal(t, "changed", lyric.Content)

	// rename, old name gone
	w = do(t, h, cookie, http.MethodPatch, "/api/lyrics/love.txt/rename", `{"newFilename":"heart"}`)
	require.Equal(t, http.StatusOK, w.Code)
	renamed := &api.MessageResponse{}
	decodeBody(t, w, renamed)
	assert.Equal(t, "heart.txt", renamed.NewFilename)

	w = do(t, h, cookie, http.MethodGet, "/api/lyrics/love.txt", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// delete, second delete is a 404
	w = do(t, h, cookie, http.MethodDelete, "/api/lyrics/heart.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, cookie, http.MethodDelete, "/api/lyrics/heart.txt", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_Create_Conflict(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a","content":"X"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a","content":"Y"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHTTP_Create_MissingFields(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Read_InvalidName(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodGet, "/api/lyrics/nosuffix", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Update_EmptyContent(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPut, "/api/lyrics/a.txt", `{"content":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Rename_Conflict(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a","content":"X"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"b","content":"Y"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodPatch, "/api/lyrics/a.txt/rename", `{"newFilename":"b"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHTTP_Rename_MissingNewName(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPatch, "/api/lyrics/a.txt/rename", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_List_Pagination(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	for _, name := range []string{"c", "a", "b"} {
		w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"`+name+`","content":"text"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, h, cookie, http.MethodGet, "/api/lyrics?page=1&pageSize=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := &api.ListResponse{}
	decodeBody(t, w, resp)
	assert.Equal(t, []string{"a.txt", "b.txt"}, resp.Files)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 2, resp.Pagination.PageSize)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)
}

func TestHTTP_List_PageBeyondEnd(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a","content":"text"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodGet, "/api/lyrics?page=9", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := &api.ListResponse{}
	decodeBody(t, w, resp)
	assert.Empty(t, resp.Files)
	assert.False(t, resp.Pagination.HasNext)
}

func TestHTTP_List_Previews(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"a","content":"some text"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodGet, "/api/lyrics?previews=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := &api.ListResponse{}
	decodeBody(t, w, resp)
	assert.Equal(t, "some text", resp.Previews["a.txt"])
}

func TestHTTP_Search(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodPost, "/api/lyrics", `{"filename":"love","content":"I love you"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, cookie, http.MethodGet, "/api/search?q=you", "")
	require.Equal(t, http.StatusOK, w.Code)

	var results []api.SearchResult
	decodeBody(t, w, &results)
	require.Len(t, results, 1)
	assert.Equal(t, "love.txt", results[0].Filename)

	// no hits is an empty array, not null
	w = do(t, h, cookie, http.MethodGet, "/api/search?q=xyz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHTTP_Search_EmptyQuery(t *testing.T) {
	h := newTestHandler(t)
	cookie := login(t, h)

	w := do(t, h, cookie, http.MethodGet, "/api/search", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_Index_RedirectsAnonymous(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, nil, http.MethodGet, "/", "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login.html", w.Header().Get("Location"))
}
