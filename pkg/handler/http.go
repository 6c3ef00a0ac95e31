package handler

import (
	"net/http"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/lyricnext/lyricserver/pkg/api"
	"github.com/lyricnext/lyricserver/pkg/metrics"
	"github.com/lyricnext/lyricserver/pkg/paging"
	"github.com/lyricnext/lyricserver/pkg/session"
	"github.com/lyricnext/lyricserver/pkg/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SessionCookie is the name of the cookie carrying the signed session token
const SessionCookie = "session"

type (
	HTTP struct {
		l         *zap.Logger
		store     *store.Store
		sessions  *session.Store
		publicDir string
		mux       *http.ServeMux
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the handler exposing the record store and session gate
// as the lyric manager HTTP API.
func NewHTTP(l *zap.Logger, s *store.Store, sessions *session.Store, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:        l.Named("http"),
		store:    s,
		sessions: sessions,
		mux:      http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.routes()
	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithPublicDir serves the entry and login pages from the given directory.
// Without it the server is API-only and GET / redirects to /login.html.
func WithPublicDir(v string) HTTPOption {
	return func(o *HTTP) {
		o.publicDir = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) routes() {
	h.mux.HandleFunc("GET /api/lyrics", h.route("list", h.authenticated(h.list)))
	h.mux.HandleFunc("GET /api/lyrics/{name}", h.route("read", h.authenticated(h.read)))
	h.mux.HandleFunc("POST /api/lyrics", h.route("create", h.authenticated(h.create)))
	h.mux.HandleFunc("PUT /api/lyrics/{name}", h.route("update", h.authenticated(h.update)))
	h.mux.HandleFunc("DELETE /api/lyrics/{name}", h.route("delete", h.authenticated(h.delete)))
	h.mux.HandleFunc("PATCH /api/lyrics/{name}/rename", h.route("rename", h.authenticated(h.rename)))
	h.mux.HandleFunc("GET /api/search", h.route("search", h.authenticated(h.search)))

	h.mux.HandleFunc("POST /api/auth/login", h.route("login", h.login))
	h.mux.HandleFunc("POST /api/auth/logout", h.route("logout", h.logout))
	h.mux.HandleFunc("GET /api/auth/status", h.route("status", h.status))

	h.mux.HandleFunc("GET /{$}", h.index)
	if h.publicDir != "" {
		for _, name := range []string{"/login.html", "/style.css", "/script.js"} {
			h.mux.HandleFunc("GET "+name, h.static(name))
		}
	}
}

// route wraps a handler with request metrics.
func (h *HTTP) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		result := "success"
		if sw.status >= http.StatusBadRequest {
			result = "error"
		}
		metrics.ServiceRequestCounter.WithLabelValues(name, result).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(name, result).Observe(time.Since(start).Seconds())
	}
}

// authenticated rejects every request without a live authenticated session.
func (h *HTTP) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Authenticated(h.cookieValue(r)) {
			h.writeError(w, http.StatusUnauthorized, "unauthorized, please log in first")
			return
		}
		next(w, r)
	}
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, pageSize := paging.Parse(query.Get("page"), query.Get("pageSize"))

	names, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	files, info := paging.Paginate(names, page, pageSize)
	resp := &api.ListResponse{
		Files:      files,
		Pagination: info,
	}

	if query.Get("previews") == "true" {
		resp.Previews = make(map[string]string, len(files))
		for _, name := range files {
			content, err := h.store.Read(r.Context(), name)
			if errors.Is(err, store.ErrNotFound) {
				// deleted while listing
				continue
			}
			if err != nil {
				h.writeStoreError(w, err)
				return
			}
			resp.Previews[name] = store.Preview(content)
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *HTTP) read(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	content, err := h.store.Read(r.Context(), name)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &api.Lyric{
		Filename: name,
		Content:  content,
	})
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	finalName, err := h.store.Create(r.Context(), req.Filename, req.Content)
	if errors.Is(err, store.ErrInvalidInput) {
		h.writeError(w, http.StatusBadRequest, "filename and content must not be empty")
		return
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &api.MessageResponse{
		Message:  "file created",
		Filename: finalName,
	})
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req api.UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.store.Update(r.Context(), name, req.Content); err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &api.MessageResponse{Message: "file updated"})
}

func (h *HTTP) delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.store.Delete(r.Context(), name); err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &api.MessageResponse{Message: "file deleted"})
}

func (h *HTTP) rename(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req api.RenameRequest
	if !h.decode(w, r, &req) {
		return
	}

	finalNewName, err := h.store.Rename(r.Context(), name, req.NewFilename)
	if errors.Is(err, store.ErrInvalidInput) {
		h.writeError(w, http.StatusBadRequest, "new filename must not be empty")
		return
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, &api.MessageResponse{
		Message:     "file renamed",
		NewFilename: finalNewName,
	})
}

func (h *HTTP) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.Search(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, store.ErrInvalidInput) {
		h.writeError(w, http.StatusBadRequest, "search query must not be empty")
		return
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, results)
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "password must not be empty")
		return
	}

	cookieValue, err := h.sessions.Login(req.Password)
	if errors.Is(err, session.ErrInvalidCredential) {
		h.writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}
	if err != nil {
		h.l.Error("login failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL().Seconds()),
	})
	h.writeJSON(w, http.StatusOK, &api.MessageResponse{Message: "login successful"})
}

func (h *HTTP) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(h.cookieValue(r)); err != nil {
		h.l.Error("logout failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	h.writeJSON(w, http.StatusOK, &api.MessageResponse{Message: "logout successful"})
}

func (h *HTTP) status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, &api.StatusResponse{
		Authenticated: h.sessions.Authenticated(h.cookieValue(r)),
	})
}

// index gates the entry page: authenticated sessions get it, everyone
// else is sent to the login page.
func (h *HTTP) index(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Authenticated(h.cookieValue(r)) {
		http.Redirect(w, r, "/login.html", http.StatusFound)
		return
	}
	if h.publicDir == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.publicDir, "index.html"))
}

func (h *HTTP) static(name string) http.HandlerFunc {
	path := filepath.Join(h.publicDir, filepath.Base(name))
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

func (h *HTTP) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *HTTP) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		h.writeError(w, http.StatusBadRequest, "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "could not read incoming json: "+err.Error())
		return false
	}
	return true
}

// writeStoreError translates record store failures into the error
// taxonomy of the API: bad input 400, missing 404, collision 409,
// anything unexpected 500.
func (h *HTTP) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, "content must not be empty")
	case errors.Is(err, store.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, "invalid file name")
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "file not found")
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "file already exists")
	default:
		h.l.Error("unexpected store error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTP) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, api.NewError(message))
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
	}
}

// statusWriter remembers the status code for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
