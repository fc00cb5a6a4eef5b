package category

import (
	"net/http"

	"github.com/nfrais/notes-de-frais/internal/transport"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

// Handler serves the static registry so clients render pickers from the same
// tables the export uses.
type Handler struct {
	*transport.BaseHandler
}

func NewHandler() *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
	}
}

type RegistryResponse struct {
	Categories        []Config             `json:"categories"`
	DiversSubAccounts []DiversSubAccount   `json:"divers_sub_accounts"`
	SalonSubTypes     []SalonSubTypeConfig `json:"salon_sub_types"`
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, RegistryResponse{
		Categories:        All(),
		DiversSubAccounts: DiversSubAccounts(),
		SalonSubTypes:     SalonSubTypes(),
	})
}
