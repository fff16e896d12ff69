package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actorID int64, dto CreatePermissionDTO) (*Permission, error)
	Update(ctx context.Context, actorID, id int64, dto UpdatePermissionDTO) (*Permission, error)
	Archive(ctx context.Context, actorID, id int64) error
	FindByID(ctx context.Context, id int64) (*Permission, error)
	FindByNameOrID(ctx context.Context, identifier string) ([]*Permission, error)
	ListActive(ctx context.Context) ([]*Permission, error)
	ListScreens(ctx context.Context) ([]Screen, error)
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

// ListPermissions handles GET /permissions, optionally filtered by ?q=
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var (
		perms []*Permission
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		perms, err = h.Service.FindByNameOrID(r.Context(), q)
	} else {
		perms, err = h.Service.ListActive(r.Context())
	}
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

// ListScreens handles GET /permissions/screens
func (h *Handler) ListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.Service.ListScreens(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ScreensResponse{Screens: screens})
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	p, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	p, err := h.Service.Create(r.Context(), internal.ActorIDFromContext(r.Context()), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	p, err := h.Service.Update(r.Context(), internal.ActorIDFromContext(r.Context()), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ArchivePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.Archive(r.Context(), internal.ActorIDFromContext(r.Context()), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
