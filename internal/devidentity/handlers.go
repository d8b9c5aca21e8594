package devidentity

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/chatline/authflow/internal/rate"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
}

type registerForm struct {
	Username string `validate:"required,max=150"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	ip := clientIP(r)
	if err := s.limiter.Allow(r.Context(), req.Username, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, msgThrottled)
			return
		}
		s.throttleUnavailable(w, err)
		return
	}

	user, ok := s.Lookup(req.Username)
	match := false
	if ok {
		if m, err := s.hasher.Verify(req.Password, user.PasswordHash); err == nil {
			match = m
		}
	}
	if !match {
		if err := s.limiter.RecordFailure(r.Context(), req.Username, ip); err != nil {
			s.throttleUnavailable(w, err)
			return
		}
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	// A counter that fails to reset expires with its window.
	if err := s.limiter.Reset(r.Context(), req.Username, ip); err != nil {
		s.logger.Warn("devidentity: throttle reset failed", "error", err)
	}

	access, refresh, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		s.logger.Error("devidentity: issue tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not issue tokens.")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Access: access, Refresh: refresh, Username: user.Username})
}

// throttleUnavailable answers 503 when the throttle cannot consult Redis.
// Logins are refused rather than let through unthrottled.
func (s *Server) throttleUnavailable(w http.ResponseWriter, err error) {
	s.logger.Error("devidentity: throttle unavailable", "error", err)
	writeError(w, http.StatusServiceUnavailable, msgThrottleDown)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := registerForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := s.validate.Struct(form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": describeValidation(err)})
		return
	}

	var (
		image     []byte
		imageType string
	)
	file, _, err := r.FormFile("profile_image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	default:
		defer file.Close()
		image, err = io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		mt := mimetype.Detect(image)
		if !strings.HasPrefix(mt.String(), "image/") {
			writeError(w, http.StatusBadRequest, msgNotAnImage)
			return
		}
		imageType = mt.String()
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Password is too short.")
		return
	}
	if _, err := s.create(form.Username, form.Email, hash, imageType, image); err != nil {
		if errors.Is(err, errUsernameTaken) {
			writeError(w, http.StatusBadRequest, msgUsernameTaken)
			return
		}
		writeError(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": msgRegistered})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
