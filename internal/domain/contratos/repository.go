package contratos

import "context"

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Contrato, int64, error)
	GetByID(ctx context.Context, id string) (*Contrato, error)
	Create(ctx context.Context, contrato *Contrato) error
	Update(ctx context.Context, contrato *Contrato) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}
