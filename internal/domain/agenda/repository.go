package agenda

import "context"

type Repository interface {
	ListItems(ctx context.Context, contratoID string) ([]Item, error)
	GetItem(ctx context.Context, contratoID, id string) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	SoftDeleteItem(ctx context.Context, contratoID, id string) (bool, error)

	ListExclusions(ctx context.Context, itemIDs []string) ([]Exclusion, error)
	// AddExclusion is a no-op when the date is already excluded.
	AddExclusion(ctx context.Context, exclusion *Exclusion) error
}
