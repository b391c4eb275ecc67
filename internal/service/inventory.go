package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

const barcodeAttempts = 5

// NewBarcode generates a fresh item barcode, unique within the active item
// set. The format is opaque to callers; only uniqueness and stability are
// promised.
func (s *Service) NewBarcode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < barcodeAttempts; attempt++ {
		raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		code := "ITEM-" + raw[:12]

		_, err := s.repo.GetItemByBarcode(ctx, code)
		if errors.Is(err, apperrors.ErrItemNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not generate a unique barcode after %d attempts", barcodeAttempts)
}

// ResolveBarcode maps a scanned or typed code to its inventory record. The
// resolver does not care how the code was obtained.
func (s *Service) ResolveBarcode(ctx context.Context, code string) (*domain.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("barcode required")
	}
	return s.repo.GetItemByBarcode(ctx, code)
}

// ResolveScan feeds a capture frame through the scan collaborator and
// resolves the decoded code. A frame without a code is a validation failure,
// not an item lookup miss.
func (s *Service) ResolveScan(ctx context.Context, frame []byte) (*domain.Item, error) {
	code, found, err := s.decoder.Decode(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("scan decode: %w", err)
	}
	if !found {
		return nil, apperrors.Validation("no barcode in frame")
	}
	return s.ResolveBarcode(ctx, code)
}

// resolveCartCode accepts either a barcode or an item id, the two ways the
// sale screen references items.
func (s *Service) resolveCartCode(ctx context.Context, code string) (*domain.Item, error) {
	item, err := s.repo.GetItemByBarcode(ctx, code)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, apperrors.ErrItemNotFound) {
		return nil, err
	}
	return s.repo.GetItem(ctx, code)
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (*domain.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, apperrors.Validation("item name required")
	}
	if !req.Class.Valid() {
		return nil, apperrors.Validation("item class must be product or service")
	}
	if !req.Price.IsPositive() {
		return nil, apperrors.Validation("item price must be positive")
	}
	if req.Cost.IsNegative() {
		return nil, apperrors.Validation("item cost must not be negative")
	}
	if req.Stock < 0 {
		return nil, apperrors.Validation("item stock must not be negative")
	}

	barcode, err := s.NewBarcode(ctx)
	if err != nil {
		return nil, err
	}

	item := domain.Item{
		ID:        newID("item"),
		Barcode:   barcode,
		Name:      req.Name,
		Class:     req.Class,
		Price:     req.Price,
		Cost:      req.Cost,
		Stock:     req.Stock,
		CreatedAt: time.Now().UTC(),
	}
	if item.Class == domain.ItemService {
		item.Stock = 0
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}
	s.invalidateProjections(ctx)
	return created, nil
}

// UpdateItem edits item master data. The barcode never changes; switching an
// item to service class zeroes its stock.
func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (*domain.Item, error) {
	var updated *domain.Item
	for attempt := 0; attempt < commitAttempts; attempt++ {
		existing, err := s.repo.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}

		next := *existing
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return nil, apperrors.Validation("item name required")
			}
			next.Name = name
		}
		if req.Class != nil {
			if !req.Class.Valid() {
				return nil, apperrors.Validation("item class must be product or service")
			}
			next.Class = *req.Class
		}
		if req.Price != nil {
			if !req.Price.IsPositive() {
				return nil, apperrors.Validation("item price must be positive")
			}
			next.Price = *req.Price
		}
		if req.Cost != nil {
			if req.Cost.IsNegative() {
				return nil, apperrors.Validation("item cost must not be negative")
			}
			next.Cost = *req.Cost
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				return nil, apperrors.Validation("item stock must not be negative")
			}
			next.Stock = *req.Stock
		}
		if next.Class == domain.ItemService {
			next.Stock = 0
		}

		updated, err = s.repo.UpdateItem(ctx, next)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return nil, err
		}
		s.invalidateProjections(ctx)
		return updated, nil
	}
	return nil, apperrors.WithEntity(apperrors.ErrConflict, "item", id)
}

// DeleteItem removes an item. Ledger entries snapshot item name and prices
// at record time, so history keeps its totals after the item is gone.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidateProjections(ctx)
	return nil
}

func (s *Service) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

// AdjustStock is the single-item primitive: a signed quantity delta with
// conflict detection. Service items absorb any delta as a no-op and resolve
// to stock 0.
func (s *Service) AdjustStock(ctx context.Context, itemID string, delta int) (int, error) {
	var newStock int
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return store.Mutation{}, err
		}
		if item.Class == domain.ItemService {
			newStock = 0
			return store.Mutation{}, nil
		}

		e := newEffects()
		e.addStock(item, delta)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		newStock = item.Stock + delta
		return e.mu, nil
	})
	if err != nil {
		return 0, err
	}
	return newStock, nil
}

// StockLevels is the read-only stock projection for display.
func (s *Service) StockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	if hit, err := s.cache.Get(ctx, cacheKeyStockLevels, &levels); err == nil && hit {
		return levels, nil
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	levels = make([]domain.StockLevel, 0, len(items))
	for _, item := range items {
		levels = append(levels, domain.StockLevel{
			ItemID:  item.ID,
			Barcode: item.Barcode,
			Name:    item.Name,
			Class:   item.Class,
			Stock:   item.Stock,
		})
	}

	if err := s.cache.Set(ctx, cacheKeyStockLevels, levels, s.projTTL); err != nil {
		log.Printf("[service] WARN: failed to cache stock levels: %v", err)
	}
	return levels, nil
}
