package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

// Handler exposes the /api/users/me endpoints. Every route must be wrapped
// with auth.Resolver.RequireUser.
type Handler struct {
	svc      *UserService
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger, validate: utilities.NewValidator()}
}

// UpdateRequest is a partial update; omitted fields are left unchanged.
type UpdateRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Profile())
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid update payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, utilities.ValidationMessage(err))
		return
	}
	updated, err := h.svc.UpdateProfile(r.Context(), u.ID, entity.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeServiceError(w, "update profile failed", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, updated.Profile())
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), u.ID); err != nil {
		h.writeServiceError(w, "delete account failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrUserNotFound) {
		utilities.WriteError(w, http.StatusNotFound, "user not found")
		return
	}
	h.logger.Warnw(msg, "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, msg)
}
