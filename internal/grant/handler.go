package grant

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
)

type ServiceAPI interface {
	Grant(ctx context.Context, userID, permissionID, grantedBy int64) (*Grant, error)
	Revoke(ctx context.Context, grantID, actorID int64) error
	RevokeByPair(ctx context.Context, userID, permissionID, actorID int64) error
	ListActiveForUser(ctx context.Context, userID int64) ([]*ActiveGrant, error)
	History(ctx context.Context, userID int64) ([]*Grant, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// ListGrants handles GET /users/{id}/grants
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	grants, err := h.Service.ListActiveForUser(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ActiveGrantsResponse{Grants: grants})
}

// GrantHistory handles GET /users/{id}/grants/history
func (h *Handler) GrantHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	grants, err := h.Service.History(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, HistoryResponse{Grants: grants})
}

// CreateGrant handles POST /users/{id}/grants
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto GrantDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	g, err := h.Service.Grant(r.Context(), userID, dto.PermissionID, internal.ActorIDFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g)
}

// RevokeUserPermission handles DELETE /users/{id}/grants/{permissionID}
func (h *Handler) RevokeUserPermission(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	permissionID, err := h.IDParam(r, "permissionID")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.RevokeByPair(r.Context(), userID, permissionID, internal.ActorIDFromContext(r.Context())); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeGrant handles DELETE /grants/{id}
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	grantID, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Revoke(r.Context(), grantID, internal.ActorIDFromContext(r.Context())); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
