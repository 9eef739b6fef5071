package rondas

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	ListRondas(ctx context.Context, contratoID string, filter RondaFilter) ([]Ronda, int64, error)
	GetRonda(ctx context.Context, contratoID, id string) (*Ronda, error)
	CreateRonda(ctx context.Context, ronda *Ronda) error
	UpdateRonda(ctx context.Context, ronda *Ronda) error
	SoftDeleteRonda(ctx context.Context, contratoID, id string) (bool, error)

	ListAreas(ctx context.Context, rondaID string) ([]AreaTecnica, error)
	GetArea(ctx context.Context, contratoID, id string) (*AreaTecnica, error)
	CreateArea(ctx context.Context, area *AreaTecnica) error
	UpdateArea(ctx context.Context, area *AreaTecnica) error
	SoftDeleteArea(ctx context.Context, id string) (bool, error)
	SoftDeleteAreasByRonda(ctx context.Context, rondaID string) error

	ListItens(ctx context.Context, rondaID string, status *ItemStatus) ([]ItemRelevante, error)
	GetItem(ctx context.Context, contratoID, id string) (*ItemRelevante, error)
	CreateItem(ctx context.Context, item *ItemRelevante) error
	UpdateItem(ctx context.Context, item *ItemRelevante) error
	SoftDeleteItem(ctx context.Context, id string) (bool, error)
	SoftDeleteItensByRonda(ctx context.Context, rondaID string) error
}
