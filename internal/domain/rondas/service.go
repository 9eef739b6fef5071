package rondas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListRondas(ctx context.Context, contratoID string, filter RondaFilter) ([]Ronda, int64, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	return s.repo.ListRondas(ctx, contratoID, filter)
}

func (s *Service) GetRonda(ctx context.Context, contratoID, id string) (*RondaDetail, error) {
	ronda, err := s.repo.GetRonda(ctx, contratoID, id)
	if err != nil {
		return nil, err
	}
	areas, err := s.repo.ListAreas(ctx, ronda.ID)
	if err != nil {
		return nil, err
	}
	itens, err := s.repo.ListItens(ctx, ronda.ID, nil)
	if err != nil {
		return nil, err
	}
	return &RondaDetail{Ronda: *ronda, Areas: areas, Itens: itens}, nil
}

func (s *Service) CreateRonda(ctx context.Context, input CreateRondaInput) (*Ronda, error) {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return nil, fmt.Errorf("%w: nome is required", ErrInvalidInput)
	}
	if input.Data.IsZero() {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
	}
	hora, err := normalizeHora(input.Hora)
	if err != nil {
		return nil, err
	}
	id, err := resolveID(input.ID)
	if err != nil {
		return nil, err
	}

	ronda := Ronda{
		ID:          id,
		ContratoID:  input.ContratoID,
		Nome:        nome,
		Data:        input.Data.Time(time.UTC),
		Hora:        hora,
		Responsavel: strings.TrimSpace(input.Responsavel),
		Observacoes: strings.TrimSpace(input.Observacoes),
	}
	if err := s.repo.CreateRonda(ctx, &ronda); err != nil {
		return nil, err
	}
	return &ronda, nil
}

func (s *Service) UpdateRonda(ctx context.Context, input UpdateRondaInput) (*Ronda, error) {
	if input.Nome == nil && input.Data == nil && input.Hora == nil && input.Responsavel == nil && input.Observacoes == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	ronda, err := s.repo.GetRonda(ctx, input.ContratoID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Nome != nil {
		nome := strings.TrimSpace(*input.Nome)
		if nome == "" {
			return nil, fmt.Errorf("%w: nome is required", ErrInvalidInput)
		}
		ronda.Nome = nome
	}
	if input.Data != nil {
		if input.Data.IsZero() {
			return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
		}
		ronda.Data = input.Data.Time(time.UTC)
	}
	if input.Hora != nil {
		hora, err := normalizeHora(*input.Hora)
		if err != nil {
			return nil, err
		}
		ronda.Hora = hora
	}
	if input.Responsavel != nil {
		ronda.Responsavel = strings.TrimSpace(*input.Responsavel)
	}
	if input.Observacoes != nil {
		ronda.Observacoes = strings.TrimSpace(*input.Observacoes)
	}

	if err := s.repo.UpdateRonda(ctx, ronda); err != nil {
		return nil, err
	}
	return ronda, nil
}

// DeleteRonda soft deletes the ronda together with its areas and itens.
func (s *Service) DeleteRonda(ctx context.Context, contratoID, id string) error {
	ronda, err := s.repo.GetRonda(ctx, contratoID, id)
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.SoftDeleteAreasByRonda(ctx, ronda.ID); err != nil {
			return err
		}
		if err := tx.SoftDeleteItensByRonda(ctx, ronda.ID); err != nil {
			return err
		}
		deleted, err := tx.SoftDeleteRonda(ctx, contratoID, ronda.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrRondaNotFound
		}
		return nil
	})
}

func (s *Service) ListAreas(ctx context.Context, contratoID, rondaID string) ([]AreaTecnica, error) {
	if _, err := s.repo.GetRonda(ctx, contratoID, rondaID); err != nil {
		return nil, err
	}
	return s.repo.ListAreas(ctx, rondaID)
}

func (s *Service) CreateArea(ctx context.Context, contratoID string, input CreateAreaInput) (*AreaTecnica, error) {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return nil, fmt.Errorf("%w: nome is required", ErrInvalidInput)
	}
	status := input.Status
	if status == "" {
		status = AreaStatusAtivo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if _, err := s.repo.GetRonda(ctx, contratoID, input.RondaID); err != nil {
		return nil, err
	}
	id, err := resolveID(input.ID)
	if err != nil {
		return nil, err
	}

	area := AreaTecnica{
		ID:          id,
		RondaID:     input.RondaID,
		Nome:        nome,
		Status:      status,
		Observacoes: strings.TrimSpace(input.Observacoes),
		FotoURL:     normalizeURL(input.FotoURL),
	}
	if err := s.repo.CreateArea(ctx, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

func (s *Service) UpdateArea(ctx context.Context, contratoID string, input UpdateAreaInput) (*AreaTecnica, error) {
	if input.Nome == nil && input.Status == nil && input.Observacoes == nil && input.FotoURL == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	area, err := s.repo.GetArea(ctx, contratoID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Nome != nil {
		nome := strings.TrimSpace(*input.Nome)
		if nome == "" {
			return nil, fmt.Errorf("%w: nome is required", ErrInvalidInput)
		}
		area.Nome = nome
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *input.Status)
		}
		area.Status = *input.Status
	}
	if input.Observacoes != nil {
		area.Observacoes = strings.TrimSpace(*input.Observacoes)
	}
	if input.FotoURL != nil {
		area.FotoURL = normalizeURL(input.FotoURL)
	}

	if err := s.repo.UpdateArea(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

func (s *Service) DeleteArea(ctx context.Context, contratoID, id string) error {
	area, err := s.repo.GetArea(ctx, contratoID, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.SoftDeleteArea(ctx, area.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAreaNotFound
	}
	return nil
}

func (s *Service) ListItens(ctx context.Context, contratoID, rondaID string, status *ItemStatus) ([]ItemRelevante, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}
	if _, err := s.repo.GetRonda(ctx, contratoID, rondaID); err != nil {
		return nil, err
	}
	return s.repo.ListItens(ctx, rondaID, status)
}

func (s *Service) CreateItem(ctx context.Context, contratoID string, input CreateItemInput) (*ItemRelevante, error) {
	descricao := strings.TrimSpace(input.Descricao)
	if descricao == "" {
		return nil, fmt.Errorf("%w: descricao is required", ErrInvalidInput)
	}
	prioridade := input.Prioridade
	if prioridade == "" {
		prioridade = PrioridadeMedia
	}
	if !prioridade.Valid() {
		return nil, fmt.Errorf("%w: unknown prioridade %q", ErrInvalidInput, input.Prioridade)
	}
	if _, err := s.repo.GetRonda(ctx, contratoID, input.RondaID); err != nil {
		return nil, err
	}
	id, err := resolveID(input.ID)
	if err != nil {
		return nil, err
	}

	item := ItemRelevante{
		ID:         id,
		RondaID:    input.RondaID,
		Descricao:  descricao,
		Prioridade: prioridade,
		Status:     ItemStatusAberto,
		FotoURL:    normalizeURL(input.FotoURL),
	}
	if err := s.repo.CreateItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) UpdateItem(ctx context.Context, contratoID string, input UpdateItemInput) (*ItemRelevante, error) {
	if input.Descricao == nil && input.Prioridade == nil && input.Status == nil && input.FotoURL == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	item, err := s.repo.GetItem(ctx, contratoID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Descricao != nil {
		descricao := strings.TrimSpace(*input.Descricao)
		if descricao == "" {
			return nil, fmt.Errorf("%w: descricao is required", ErrInvalidInput)
		}
		item.Descricao = descricao
	}
	if input.Prioridade != nil {
		if !input.Prioridade.Valid() {
			return nil, fmt.Errorf("%w: unknown prioridade %q", ErrInvalidInput, *input.Prioridade)
		}
		item.Prioridade = *input.Prioridade
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *input.Status)
		}
		if *input.Status != item.Status {
			item.Status = *input.Status
			if item.Status == ItemStatusCorrigido {
				now := s.now().UTC()
				item.CorrigidoEm = &now
			} else {
				item.CorrigidoEm = nil
			}
		}
	}
	if input.FotoURL != nil {
		item.FotoURL = normalizeURL(input.FotoURL)
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, contratoID, id string) error {
	item, err := s.repo.GetItem(ctx, contratoID, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.SoftDeleteItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrItemNotFound
	}
	return nil
}

// resolveID accepts a client-assigned uuid so records created offline keep
// their id once replayed.
func resolveID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: id must be a uuid", ErrInvalidInput)
	}
	return parsed.String(), nil
}

func normalizeHora(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("%w: hora must be HH:MM", ErrInvalidInput)
	}
	return parsed.Format("15:04"), nil
}

func normalizeURL(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
