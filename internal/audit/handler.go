package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal/transport"
)

type ServiceAPI interface {
	ListForRecord(ctx context.Context, table string, recordID int64) ([]*Entry, error)
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

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

// ListForRecord serves the trail of one row of table, oldest first. The
// record id is read from the {id} route parameter.
func (h *Handler) ListForRecord(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.IDParam(r, "id")
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		entries, err := h.Service.ListForRecord(r.Context(), table, id)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
	}
}
