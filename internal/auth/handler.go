package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/security"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

// Handler exposes HTTP endpoints for register / login.
type Handler struct {
	svc      *Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger, validate: utilities.NewValidator()}
}

// RegisterRequest request body for register endpoint.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	User         entity.Profile `json:"user"`
}

func newTokenResponse(s *Session) TokenResponse {
	return TokenResponse{
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		TokenType:    "bearer",
		User:         s.User.Profile(),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, utilities.ValidationMessage(err))
		return
	}
	sess, err := h.svc.Register(r.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEmailTaken):
			utilities.WriteError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, security.ErrPasswordTooLong):
			utilities.WriteError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		default:
			h.logger.Warnw("register failed", "err", err)
			utilities.WriteError(w, http.StatusInternalServerError, "register failed")
		}
		return
	}
	h.logger.Infow("user registered", "user_id", sess.User.ID)
	utilities.WriteJSON(w, http.StatusCreated, newTokenResponse(sess))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, utilities.ValidationMessage(err))
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			h.logger.Debugw("login failed", "err", err)
			utilities.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Warnw("login failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, newTokenResponse(sess))
}
