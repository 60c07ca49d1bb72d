package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/validation"
)

// ListService manages an account's shopping lists. Every operation reads the
// whole snapshot, builds new list values and writes the snapshot back.
type ListService struct {
	store domain.DocumentStore
	clock func() time.Time
	newID func() string
}

// NewListService creates a list service. A nil clock uses time.Now.
func NewListService(store domain.DocumentStore, clock func() time.Time) *ListService {
	if clock == nil {
		clock = time.Now
	}
	return &ListService{
		store: store,
		clock: clock,
		newID: uuid.NewString,
	}
}

// Lists returns every list of the account
func (s *ListService) Lists(ctx context.Context, accountID string) ([]domain.ShoppingList, error) {
	snapshot, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return snapshot.Lists, nil
}

// CreateList adds an empty list
func (s *ListService) CreateList(ctx context.Context, accountID, name string) (*domain.ShoppingList, error) {
	r := validation.Validate(name, validation.ListName)
	if err := r.Err(validation.ListName); err != nil {
		return nil, err
	}

	snapshot, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if limit := validation.CheckShoppingListLimits(len(snapshot.Lists), 0); !limit.Valid {
		return nil, domain.NewLimitExceeded("lists", limit.Error)
	}

	list := domain.ShoppingList{
		ID:        s.newID(),
		Name:      r.Sanitized,
		Items:     []domain.ShoppingListItem{},
		CreatedAt: s.clock().UnixMilli(),
	}
	snapshot.Lists = append(append([]domain.ShoppingList(nil), snapshot.Lists...), list)

	if err := s.save(ctx, accountID, snapshot); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList removes a list
func (s *ListService) DeleteList(ctx context.Context, accountID, listID string) error {
	snapshot, err := s.load(ctx, accountID)
	if err != nil {
		return err
	}

	idx := domain.FindList(snapshot.Lists, listID)
	if idx < 0 {
		return domain.ErrListNotFound
	}

	lists := make([]domain.ShoppingList, 0, len(snapshot.Lists)-1)
	lists = append(lists, snapshot.Lists[:idx]...)
	lists = append(lists, snapshot.Lists[idx+1:]...)
	snapshot.Lists = lists

	return s.save(ctx, accountID, snapshot)
}

// AddItem appends an item to a list, optionally seeding its best quote
func (s *ListService) AddItem(
	ctx context.Context,
	accountID string,
	listID string,
	request *domain.AddItemRequest,
) (*domain.ShoppingListItem, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	r := validation.Validate(request.Name, validation.ItemName)
	if err := r.Err(validation.ItemName); err != nil {
		return nil, err
	}

	bestPrice, bestStore, err := seedQuote(request.BestPrice, request.BestStore)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	idx := domain.FindList(snapshot.Lists, listID)
	if idx < 0 {
		return nil, domain.ErrListNotFound
	}

	list := snapshot.Lists[idx]
	if limit := validation.CheckItemLimit(len(list.Items)); !limit.Valid {
		return nil, domain.NewLimitExceeded("items", limit.Error)
	}

	item := domain.ShoppingListItem{
		ID:        s.newID(),
		Name:      r.Sanitized,
		AddedAt:   s.clock().UnixMilli(),
		BestPrice: bestPrice,
		BestStore: bestStore,
	}
	list.Items = append(append([]domain.ShoppingListItem(nil), list.Items...), item)

	if err := s.replaceList(ctx, accountID, snapshot, idx, list); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleItem flips the checked state of an item
func (s *ListService) ToggleItem(ctx context.Context, accountID, listID, itemID string) (*domain.ShoppingListItem, error) {
	snapshot, list, idx, err := s.loadList(ctx, accountID, listID)
	if err != nil {
		return nil, err
	}

	items := append([]domain.ShoppingListItem(nil), list.Items...)
	for i := range items {
		if items[i].ID == itemID {
			items[i].Checked = !items[i].Checked
			list.Items = items
			if err := s.replaceList(ctx, accountID, snapshot, idx, list); err != nil {
				return nil, err
			}
			item := items[i]
			return &item, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

// RemoveItem deletes an item from a list
func (s *ListService) RemoveItem(ctx context.Context, accountID, listID, itemID string) error {
	snapshot, list, idx, err := s.loadList(ctx, accountID, listID)
	if err != nil {
		return err
	}

	items := make([]domain.ShoppingListItem, 0, len(list.Items))
	for _, item := range list.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	if len(items) == len(list.Items) {
		return domain.ErrItemNotFound
	}

	list.Items = items
	return s.replaceList(ctx, accountID, snapshot, idx, list)
}

// ListTotal sums the cached best prices of a list's items
func ListTotal(list domain.ShoppingList) float64 {
	total := 0.0
	for _, item := range list.Items {
		if item.BestPrice != nil {
			total += *item.BestPrice
		}
	}
	return total
}

func (s *ListService) loadList(ctx context.Context, accountID, listID string) (*domain.Snapshot, domain.ShoppingList, int, error) {
	snapshot, err := s.load(ctx, accountID)
	if err != nil {
		return nil, domain.ShoppingList{}, -1, err
	}
	idx := domain.FindList(snapshot.Lists, listID)
	if idx < 0 {
		return nil, domain.ShoppingList{}, -1, domain.ErrListNotFound
	}
	return snapshot, snapshot.Lists[idx], idx, nil
}

func (s *ListService) replaceList(ctx context.Context, accountID string, snapshot *domain.Snapshot, idx int, list domain.ShoppingList) error {
	lists := append([]domain.ShoppingList(nil), snapshot.Lists...)
	lists[idx] = list
	snapshot.Lists = lists
	return s.save(ctx, accountID, snapshot)
}

func (s *ListService) load(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrInvalidRequest
	}
	snapshot, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if snapshot == nil {
		return domain.NewSnapshot(), nil
	}
	return snapshot.Normalize(), nil
}

func (s *ListService) save(ctx context.Context, accountID string, snapshot *domain.Snapshot) error {
	if err := s.store.Put(ctx, accountID, snapshot); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// seedQuote validates an optional price/store pair supplied with a new item
func seedQuote(price *float64, store *string) (*float64, *string, error) {
	if price == nil && store == nil {
		return nil, nil, nil
	}
	if price == nil || store == nil {
		return nil, nil, domain.NewInputRejected("bestPrice", "bestPrice and bestStore must be given together")
	}

	if err := validation.ValidatePrice(*price).Err(validation.Price); err != nil {
		return nil, nil, err
	}
	r := validation.Validate(*store, validation.StoreName)
	if err := r.Err(validation.StoreName); err != nil {
		return nil, nil, err
	}

	p := *price
	name := r.Sanitized
	return &p, &name, nil
}
