package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/eryndor/internal/game"
	"github.com/jwebster45206/eryndor/internal/middleware"
	"github.com/jwebster45206/eryndor/pkg/state"
)

type InventoryResponse struct {
	game.Result
	Items []state.InventoryItem `json:"items"`
}

// InventoryHandler lists the caller's items and toggles what is equipped.
type InventoryHandler struct {
	inventory *game.InventoryService
	logger    *slog.Logger
}

func NewInventoryHandler(inventory *game.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// ServeHTTP handles GET /v1/inventory and POST /v1/inventory/{id}/equip|unequip
func (h *InventoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.PlayerID(r.Context())

	if strings.Trim(r.URL.Path, "/") == "v1/inventory" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}
		items, err := h.inventory.List(r.Context(), playerID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, InventoryResponse{Result: game.OK(), Items: items})
		return
	}

	apply := h.inventory.Equip
	itemID, ok := pathID(r.URL.Path, "inventory", "equip")
	if !ok {
		apply = h.inventory.Unequip
		itemID, ok = pathID(r.URL.Path, "inventory", "unequip")
	}
	if !ok {
		writeJSON(w, h.logger, http.StatusNotFound, game.Result{
			Error: "Invalid path. Expected /v1/inventory/{id}/equip or /v1/inventory/{id}/unequip",
		})
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	if err := apply(r.Context(), playerID, itemID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, game.OK())
}
