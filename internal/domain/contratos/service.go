package contratos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultCacheTTL = time.Minute

type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
}

func NewService(repo Repository) *Service {
	return NewServiceWithCache(repo, nil, 0)
}

func NewServiceWithCache(repo Repository, cache Cache, ttl time.Duration) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{repo: repo, cache: cache, cacheTTL: ttl}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Contrato, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*Contrato, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}

	contrato, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, contrato, s.cacheTTL)
	return contrato, nil
}

func (s *Service) Create(ctx context.Context, input CreateContratoInput) (*Contrato, error) {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return nil, fmt.Errorf("%w: nome is required", ErrInvalidContrato)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id must be a uuid", ErrInvalidContrato)
	}

	contrato := Contrato{
		ID:       id,
		Nome:     nome,
		Endereco: strings.TrimSpace(input.Endereco),
		Sindico:  strings.TrimSpace(input.Sindico),
		Status:   StatusAtivo,
	}
	if err := s.repo.Create(ctx, &contrato); err != nil {
		return nil, err
	}
	return &contrato, nil
}

func (s *Service) Update(ctx context.Context, input UpdateContratoInput) (*Contrato, error) {
	if input.Nome == nil && input.Endereco == nil && input.Sindico == nil && input.Status == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidContrato)
	}

	contrato, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Nome != nil {
		nome := strings.TrimSpace(*input.Nome)
		if nome == "" {
			return nil, fmt.Errorf("%w: nome is required", ErrInvalidContrato)
		}
		contrato.Nome = nome
	}
	if input.Endereco != nil {
		contrato.Endereco = strings.TrimSpace(*input.Endereco)
	}
	if input.Sindico != nil {
		contrato.Sindico = strings.TrimSpace(*input.Sindico)
	}
	if input.Status != nil {
		status, ok := ParseStatus(string(*input.Status))
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidContrato, *input.Status)
		}
		contrato.Status = status
	}

	if err := s.repo.Update(ctx, contrato); err != nil {
		return nil, err
	}
	s.cache.Delete(contrato.ID)
	return contrato, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	s.cache.Delete(id)
	if !deleted {
		return ErrContratoNotFound
	}
	return nil
}
