package devidentity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/chatline/authflow/internal/rate"
	"github.com/chatline/authflow/jwt"
	"github.com/chatline/authflow/password"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgUsernameTaken      = "Username already exists."
	msgRegistered         = "User registered successfully."
	msgBadRequest         = "Invalid request body."
	msgNotAnImage         = "Profile image must be an image."
	msgThrottled          = "Too many login attempts. Try again later."
	msgThrottleDown       = "Login is temporarily unavailable. Try again later."

	defaultMaxUploadBytes = 5 << 20
)

// Config configures a Server.
type Config struct {
	// Prefix is the mount point of the API, e.g. "/api". Endpoints are
	// Prefix+"/login/" and Prefix+"/register/".
	Prefix         string
	Tokens         jwt.Config
	Password       password.Config
	MaxUploadBytes int64
	Logger         *slog.Logger

	// Redis backs the failed-login throttle. Throttling is off when Redis is
	// nil or Throttle.MaxAttempts is zero.
	Redis    redis.UniversalClient
	Throttle rate.Config
}

// DefaultConfig returns a development configuration signing HS256 tokens with secret.
func DefaultConfig(secret []byte) Config {
	return Config{
		Prefix: "/api",
		Tokens: jwt.Config{
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    secret,
			Issuer:        "authflow-devidentity",
		},
		Password:       password.DefaultConfig(),
		MaxUploadBytes: defaultMaxUploadBytes,
	}
}

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ImageType    string
	Image        []byte
	CreatedAt    time.Time
}

// Server is the in-memory identity service. It is safe for concurrent use.
type Server struct {
	cfg      Config
	hasher   *password.Hasher
	tokens   *jwt.Manager
	validate *validator.Validate
	limiter  *rate.Limiter
	logger   *slog.Logger
	router   chi.Router

	mu     sync.RWMutex
	users  map[string]*User
	nextID int
}

// New validates cfg and returns a Server with an empty account table. The
// login throttle is active only when cfg.Redis is set and
// cfg.Throttle.MaxAttempts is positive.
func New(cfg Config) (*Server, error) {
	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("devidentity: %w", err)
	}
	tokens, err := jwt.NewManager(cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("devidentity: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	cfg.Prefix = strings.TrimSuffix(cfg.Prefix, "/")

	s := &Server{
		cfg:      cfg,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  rate.New(cfg.Redis, cfg.Throttle),
		logger:   cfg.Logger,
		users:    map[string]*User{},
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	route := func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
	}
	if s.cfg.Prefix == "" {
		route(r)
	} else {
		r.Route(s.cfg.Prefix, route)
	}
	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tokens returns the manager that signs issued tokens, for verification in tests.
func (s *Server) Tokens() *jwt.Manager {
	return s.tokens
}

// Lookup returns a copy of the named account.
func (s *Server) Lookup(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

var errUsernameTaken = errors.New("username taken")

func (s *Server) create(username, email, hash, imageType string, image []byte) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return nil, errUsernameTaken
	}
	s.nextID++
	u := &User{
		ID:           strconv.Itoa(s.nextID),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ImageType:    imageType,
		Image:        image,
		CreatedAt:    time.Now(),
	}
	s.users[username] = u
	return u, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("devidentity request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
