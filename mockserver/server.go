// Package mockserver is an in-memory implementation of the registration and
// plugin admin endpoints, used for local runs and tests.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/initializ/glewlwyd-console/logging"
	"github.com/initializ/glewlwyd-console/plugin"
	"github.com/initializ/glewlwyd-console/registration"
)

// SessionCookie names the registration session cookie.
const SessionCookie = "GLEWLWYD_REGISTER_SESSION"

// DefaultCode is the verification code accepted when none is configured.
const DefaultCode = "123456"

// Options configures a Server.
type Options struct {
	// Plugin is the registration plugin path segment. Defaults to "register".
	Plugin string
	Config registration.Config
	// Taken lists usernames that already exist.
	Taken []string
	// Code is the verification code every e-mail receives.
	Code string
	// AdminToken, when set, is required as a bearer token on /mod endpoints.
	AdminToken string
	Plugins    []plugin.Entity
	Types      []plugin.ModType
	Logger     logging.Logger
}

type session struct {
	profile      registration.Profile
	passwordHash []byte
	schemes      registration.SchemeMap
}

type verification struct {
	username string
	email    string
	code     string
}

// Server holds the mock backend state.
type Server struct {
	opts Options
	log  logging.Logger

	mu            sync.Mutex
	users         map[string]bool
	sessions      map[string]*session
	verifications map[string]verification
	plugins       map[string]plugin.Entity
	router        *mux.Router
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Plugin == "" {
		opts.Plugin = "register"
	}
	if opts.Code == "" {
		opts.Code = DefaultCode
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	s := &Server{
		opts:          opts,
		log:           opts.Logger,
		users:         make(map[string]bool),
		sessions:      make(map[string]*session),
		verifications: make(map[string]verification),
		plugins:       make(map[string]plugin.Entity),
	}
	for _, u := range opts.Taken {
		s.users[u] = true
	}
	for _, p := range opts.Plugins {
		s.plugins[p.Name] = p.Clone()
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()

	reg := r.PathPrefix("/" + s.opts.Plugin).Subrouter()
	reg.HandleFunc("/config", s.handleConfig).Methods("GET")
	reg.HandleFunc("/username", s.handleUsername).Methods("POST")
	reg.HandleFunc("/register", s.handleRegister).Methods("POST")
	reg.HandleFunc("/verify", s.handleSendVerification).Methods("PUT")
	reg.HandleFunc("/verify", s.handleVerify).Methods("POST")
	reg.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	reg.HandleFunc("/profile", s.handleUpdateProfile).Methods("PUT")
	reg.HandleFunc("/profile", s.handleCancel).Methods("DELETE")
	reg.HandleFunc("/profile/password", s.handlePassword).Methods("POST")
	reg.HandleFunc("/profile/scheme", s.handleSchemes).Methods("GET")
	reg.HandleFunc("/profile/scheme/{name}", s.handleMarkScheme).Methods("POST")
	reg.HandleFunc("/profile/complete", s.handleComplete).Methods("POST")

	mod := r.PathPrefix("/mod").Subrouter()
	mod.Use(s.requireAdmin)
	mod.HandleFunc("/type/", s.handleTypes).Methods("GET")
	mod.HandleFunc("/plugin/", s.handleListPlugins).Methods("GET")
	mod.HandleFunc("/plugin/", s.handleCreatePlugin).Methods("POST")
	mod.HandleFunc("/plugin/{name}", s.handleGetPlugin).Methods("GET")
	mod.HandleFunc("/plugin/{name}", s.handleUpdatePlugin).Methods("PUT")

	r.Use(s.logRequests)
	return r
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled. ready, when non-nil, receives
// the bound address once the listener is open.
func (s *Server) Run(ctx context.Context, addr string, ready func(addr string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Registered reports whether username completed a registration or was
// preloaded as taken.
func (s *Server) Registered(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[username]
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Debug("mock request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"request_id":  r.Header.Get("X-Request-ID"),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminToken != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.AdminToken {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

// --- registration ---

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Config)
}

func (s *Server) usernameAvailable(username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}
	if s.users[username] {
		return false
	}
	for _, sess := range s.sessions {
		if sess.profile.Username == username {
			return false
		}
	}
	return true
}

func (s *Server) handleUsername(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	ok := s.usernameAvailable(body.Username)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "username unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.opts.Config.VerifyEmail {
		writeError(w, http.StatusBadRequest, "e-mail verification required")
		return
	}
	var body struct {
		Username string `json:"username"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.usernameAvailable(body.Username) {
		writeError(w, http.StatusBadRequest, "username unavailable")
		return
	}
	s.startSession(w, registration.Profile{Username: body.Username})
}

// startSession must be called with s.mu held.
func (s *Server) startSession(w http.ResponseWriter, p registration.Profile) {
	id := uuid.NewString()
	s.sessions[id] = &session{profile: p, schemes: registration.SchemeMap{}}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	s.log.Info("mock registration started", map[string]any{"username": p.Username, "session": id})
	w.WriteHeader(http.StatusOK)
}

// currentSession returns the caller's session. It must be called with s.mu held.
func (s *Server) currentSession(r *http.Request) (string, *session) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", nil
	}
	return c.Value, s.sessions[c.Value]
}

func (s *Server) handleSendVerification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Lang        string `json:"lang"`
		CallbackURL any    `json:"callback_url"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid e-mail")
		return
	}
	if s.opts.Config.EmailIsUsername {
		body.Username = body.Email
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.usernameAvailable(body.Username) {
		writeError(w, http.StatusBadRequest, "username unavailable")
		return
	}
	s.verifications[body.Email] = verification{username: body.Username, email: body.Email, code: s.opts.Code}
	s.log.Info("mock verification code sent", map[string]any{
		"email": body.Email, "lang": body.Lang, "code": s.opts.Code,
	})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body registration.VerifyRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[body.Email]
	if !ok || v.code != body.Code || v.username != body.Username {
		writeError(w, http.StatusBadRequest, "invalid code")
		return
	}
	if !s.usernameAvailable(v.username) {
		writeError(w, http.StatusBadRequest, "username unavailable")
		return
	}
	delete(s.verifications, body.Email)
	s.startSession(w, registration.Profile{Username: v.username, Email: v.email})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	writeJSON(w, http.StatusOK, sess.profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body registration.Profile
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	sess.profile.Name = body.Name
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.opts.Config.SetPassword == registration.RequirementNo || body.Password == "" {
		writeError(w, http.StatusBadRequest, "password not allowed")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	sess.passwordHash = hash
	sess.profile.PasswordSet = true
	w.WriteHeader(http.StatusOK)
}

// CheckPassword reports whether password matches the one set in the
// registration session of username.
func (s *Server) CheckPassword(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.profile.Username == username && sess.passwordHash != nil {
			return bcrypt.CompareHashAndPassword(sess.passwordHash, []byte(password)) == nil
		}
	}
	return false
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	out := registration.SchemeMap{}
	for _, sc := range s.opts.Config.Schemes {
		out[sc.Name] = sess.schemes[sc.Name]
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMarkScheme stands in for a scheme's own registration endpoint.
func (s *Server) handleMarkScheme(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	known := false
	for _, sc := range s.opts.Config.Schemes {
		known = known || sc.Name == name
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown scheme")
		return
	}
	sess.schemes[name] = true
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	if steps := registration.ComputePendingSteps(s.opts.Config, &sess.profile, sess.schemes); len(steps) > 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%d mandatory steps pending", len(steps)))
		return
	}
	s.users[sess.profile.Username] = true
	delete(s.sessions, id)
	s.log.Info("mock registration completed", map[string]any{"username": sess.profile.Username})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, sess := s.currentSession(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "no registration session")
		return
	}
	delete(s.sessions, id)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusOK)
}

// --- plugin admin ---

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.opts.Types
	if types == nil {
		types = []plugin.ModType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleListPlugins(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]plugin.Entity, 0, len(s.plugins))
	for _, p := range s.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPlugin(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.mu.Lock()
	p, ok := s.plugins[name]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "plugin not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePlugin(w http.ResponseWriter, r *http.Request) {
	var p plugin.Entity
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Name == "" || p.Module == "" {
		writeError(w, http.StatusBadRequest, "name and module are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plugins[p.Name]; exists {
		writeError(w, http.StatusBadRequest, "plugin already exists")
		return
	}
	s.plugins[p.Name] = p
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUpdatePlugin(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var p plugin.Entity
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plugins[name]; !exists {
		writeError(w, http.StatusNotFound, "plugin not found")
		return
	}
	p.Name = name
	s.plugins[name] = p
	w.WriteHeader(http.StatusOK)
}
