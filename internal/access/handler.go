package access

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/session"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
)

type GateAPI interface {
	Checker
	ReconcileScreenAccess(ctx context.Context, sess *session.Session, userID int64, entries []grant.ScreenAccess) (grant.ReconcileSummary, error)
}

type Handler struct {
	*transport.BaseHandler
	Gate GateAPI
}

func NewHandler(baseHandler *transport.BaseHandler, gate GateAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Gate:        gate,
	}
}

// CheckPermission handles GET /access/check?permission=&access=
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.IsAuthenticated() {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("permission"))
	if name == "" {
		h.WriteAppError(w, r, internal.NewValidationFieldError("permission", "permission is required", internal.ErrCodeRequired))
		return
	}
	accessType, err := permission.ParseAccessType(r.URL.Query().Get("access"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	decision, err := h.Gate.Check(r.Context(), sess, name, accessType)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, decision)
}

// CheckScreen handles GET /access/screens/{screen}
func (h *Handler) CheckScreen(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.IsAuthenticated() {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}

	decision, err := h.Gate.CheckScreen(r.Context(), sess, chi.URLParam(r, "screen"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, decision)
}

// ReconcileScreenAccess handles PUT /users/{id}/screen-access
func (h *Handler) ReconcileScreenAccess(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto grant.ScreenAccessDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	summary, err := h.Gate.ReconcileScreenAccess(r.Context(), session.FromContext(r.Context()), userID, dto.Screens)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
