package snapshot

import (
	"net/http"

	"github.com/frahmantamala/payable/internal/transport"
	"github.com/frahmantamala/payable/pkg/logger"
)

type Reader interface {
	Snapshot() Snapshot
	Stale() bool
}

type Handler struct {
	*transport.BaseHandler
	Reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Reader:      reader,
	}
}

type Response struct {
	Snapshot
	Stale bool `json:"stale"`
}

// GetSnapshot handles GET /snapshot
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	stale := h.Reader.Stale()
	if stale {
		h.Logger.Debug("GetSnapshot: serving stale snapshot")
	}
	h.WriteJSON(w, http.StatusOK, Response{Snapshot: h.Reader.Snapshot(), Stale: stale})
}
