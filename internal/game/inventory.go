package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/jwebster45206/eryndor/pkg/storage"
)

// InventoryService manages what a player carries and wears.
// At most one item per category is equipped.
type InventoryService struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewInventoryService(store storage.Storage, logger *slog.Logger) *InventoryService {
	return &InventoryService{store: store, logger: logger}
}

// List returns the inventory, equipped items first.
func (s *InventoryService) List(ctx context.Context, playerID uuid.UUID) ([]state.InventoryItem, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	items, err := s.store.ListInventory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	if items == nil {
		items = []state.InventoryItem{}
	}
	return items, nil
}

// Equip equips an item after unequipping everything else in its category.
func (s *InventoryService) Equip(ctx context.Context, playerID, itemID uuid.UUID) error {
	item, err := s.item(ctx, playerID, itemID)
	if err != nil {
		return err
	}

	if err := s.store.UnequipCategory(ctx, playerID, item.Equipment.Category); err != nil {
		return fmt.Errorf("failed to unequip %s: %w", item.Equipment.Category, err)
	}
	if err := s.store.SetEquipped(ctx, playerID, itemID, true); err != nil {
		return fmt.Errorf("failed to equip item: %w", notFound(err, ErrItemNotFound))
	}

	s.logger.Info("Item equipped",
		"player_id", playerID,
		"item", item.Equipment.Name,
		"category", item.Equipment.Category)
	return nil
}

func (s *InventoryService) Unequip(ctx context.Context, playerID, itemID uuid.UUID) error {
	if _, err := s.item(ctx, playerID, itemID); err != nil {
		return err
	}
	if err := s.store.SetEquipped(ctx, playerID, itemID, false); err != nil {
		return fmt.Errorf("failed to unequip item: %w", notFound(err, ErrItemNotFound))
	}
	return nil
}

func (s *InventoryService) item(ctx context.Context, playerID, itemID uuid.UUID) (*state.InventoryItem, error) {
	if err := requirePlayer(playerID); err != nil {
		return nil, err
	}
	item, err := s.store.GetInventoryItem(ctx, playerID, itemID)
	if err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return item, nil
}
