package rondas

import (
	"context"
	"errors"
	"testing"
	"time"

	"ronda-app-go/internal/recurrence"
)

const (
	contratoA = "c0000000-0000-4000-8000-00000000000a"
	contratoB = "c0000000-0000-4000-8000-00000000000b"
)

type fakeRondasRepo struct {
	rondas map[string]Ronda
	areas  map[string]AreaTecnica
	itens  map[string]ItemRelevante
	txs    int
}

func newFakeRondasRepo() *fakeRondasRepo {
	return &fakeRondasRepo{
		rondas: make(map[string]Ronda),
		areas:  make(map[string]AreaTecnica),
		itens:  make(map[string]ItemRelevante),
	}
}

func (r *fakeRondasRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	r.txs++
	return fn(r)
}

func (r *fakeRondasRepo) ListRondas(ctx context.Context, contratoID string, filter RondaFilter) ([]Ronda, int64, error) {
	var result []Ronda
	for _, ronda := range r.rondas {
		if ronda.ContratoID == contratoID {
			result = append(result, ronda)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeRondasRepo) GetRonda(ctx context.Context, contratoID, id string) (*Ronda, error) {
	ronda, ok := r.rondas[id]
	if !ok || ronda.ContratoID != contratoID {
		return nil, ErrRondaNotFound
	}
	return &ronda, nil
}

func (r *fakeRondasRepo) CreateRonda(ctx context.Context, ronda *Ronda) error {
	if _, ok := r.rondas[ronda.ID]; ok {
		return ErrAlreadyExists
	}
	r.rondas[ronda.ID] = *ronda
	return nil
}

func (r *fakeRondasRepo) UpdateRonda(ctx context.Context, ronda *Ronda) error {
	r.rondas[ronda.ID] = *ronda
	return nil
}

func (r *fakeRondasRepo) SoftDeleteRonda(ctx context.Context, contratoID, id string) (bool, error) {
	ronda, ok := r.rondas[id]
	if !ok || ronda.ContratoID != contratoID {
		return false, nil
	}
	delete(r.rondas, id)
	return true, nil
}

func (r *fakeRondasRepo) ListAreas(ctx context.Context, rondaID string) ([]AreaTecnica, error) {
	var result []AreaTecnica
	for _, area := range r.areas {
		if area.RondaID == rondaID {
			result = append(result, area)
		}
	}
	return result, nil
}

func (r *fakeRondasRepo) GetArea(ctx context.Context, contratoID, id string) (*AreaTecnica, error) {
	area, ok := r.areas[id]
	if !ok {
		return nil, ErrAreaNotFound
	}
	if ronda, ok := r.rondas[area.RondaID]; !ok || ronda.ContratoID != contratoID {
		return nil, ErrAreaNotFound
	}
	return &area, nil
}

func (r *fakeRondasRepo) CreateArea(ctx context.Context, area *AreaTecnica) error {
	r.areas[area.ID] = *area
	return nil
}

func (r *fakeRondasRepo) UpdateArea(ctx context.Context, area *AreaTecnica) error {
	r.areas[area.ID] = *area
	return nil
}

func (r *fakeRondasRepo) SoftDeleteArea(ctx context.Context, id string) (bool, error) {
	if _, ok := r.areas[id]; !ok {
		return false, nil
	}
	delete(r.areas, id)
	return true, nil
}

func (r *fakeRondasRepo) SoftDeleteAreasByRonda(ctx context.Context, rondaID string) error {
	for id, area := range r.areas {
		if area.RondaID == rondaID {
			delete(r.areas, id)
		}
	}
	return nil
}

func (r *fakeRondasRepo) ListItens(ctx context.Context, rondaID string, status *ItemStatus) ([]ItemRelevante, error) {
	var result []ItemRelevante
	for _, item := range r.itens {
		if item.RondaID != rondaID {
			continue
		}
		if status != nil && item.Status != *status {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *fakeRondasRepo) GetItem(ctx context.Context, contratoID, id string) (*ItemRelevante, error) {
	item, ok := r.itens[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	if ronda, ok := r.rondas[item.RondaID]; !ok || ronda.ContratoID != contratoID {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

func (r *fakeRondasRepo) CreateItem(ctx context.Context, item *ItemRelevante) error {
	r.itens[item.ID] = *item
	return nil
}

func (r *fakeRondasRepo) UpdateItem(ctx context.Context, item *ItemRelevante) error {
	r.itens[item.ID] = *item
	return nil
}

func (r *fakeRondasRepo) SoftDeleteItem(ctx context.Context, id string) (bool, error) {
	if _, ok := r.itens[id]; !ok {
		return false, nil
	}
	delete(r.itens, id)
	return true, nil
}

func (r *fakeRondasRepo) SoftDeleteItensByRonda(ctx context.Context, rondaID string) error {
	for id, item := range r.itens {
		if item.RondaID == rondaID {
			delete(r.itens, id)
		}
	}
	return nil
}

func mustDate(t *testing.T, value string) recurrence.Date {
	t.Helper()
	d, err := recurrence.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}

func createRonda(t *testing.T, svc *Service, contratoID string) *Ronda {
	t.Helper()
	ronda, err := svc.CreateRonda(context.Background(), CreateRondaInput{
		ContratoID:  contratoID,
		Nome:        "Ronda Teste",
		Data:        mustDate(t, "2024-03-10"),
		Hora:        "9:30",
		Responsavel: "Carlos",
	})
	if err != nil {
		t.Fatalf("create ronda: %v", err)
	}
	return ronda
}

func TestCreateRondaValidates(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ctx := context.Background()
	data := mustDate(t, "2024-03-10")

	cases := []struct {
		name  string
		input CreateRondaInput
	}{
		{"empty nome", CreateRondaInput{ContratoID: contratoA, Nome: " ", Data: data}},
		{"missing data", CreateRondaInput{ContratoID: contratoA, Nome: "Ronda"}},
		{"bad hora", CreateRondaInput{ContratoID: contratoA, Nome: "Ronda", Data: data, Hora: "25:00"}},
		{"bad id", CreateRondaInput{ID: "local-1", ContratoID: contratoA, Nome: "Ronda", Data: data}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateRonda(ctx, tc.input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestCreateRondaNormalizes(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ronda := createRonda(t, svc, contratoA)

	if ronda.Hora != "09:30" {
		t.Fatalf("expected hora normalized to 09:30, got %q", ronda.Hora)
	}
	if got := recurrence.FromTime(ronda.Data).String(); got != "2024-03-10" {
		t.Fatalf("expected data 2024-03-10, got %s", got)
	}
	if ronda.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestCreateRondaKeepsClientID(t *testing.T) {
	repo := newFakeRondasRepo()
	svc := NewService(repo)
	id := "6f1c2d3e-4a5b-4c6d-8e7f-0123456789ab"

	ronda, err := svc.CreateRonda(context.Background(), CreateRondaInput{
		ID: id, ContratoID: contratoA, Nome: "Ronda Teste", Data: mustDate(t, "2024-03-10"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ronda.ID != id {
		t.Fatalf("expected client id %s, got %s", id, ronda.ID)
	}

	_, err = svc.CreateRonda(context.Background(), CreateRondaInput{
		ID: id, ContratoID: contratoA, Nome: "Ronda Teste", Data: mustDate(t, "2024-03-10"),
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on replay, got %v", err)
	}
}

func TestRondaScopedByContrato(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ronda := createRonda(t, svc, contratoA)

	if _, err := svc.GetRonda(context.Background(), contratoB, ronda.ID); !errors.Is(err, ErrRondaNotFound) {
		t.Fatalf("expected ErrRondaNotFound across contratos, got %v", err)
	}
	if err := svc.DeleteRonda(context.Background(), contratoB, ronda.ID); !errors.Is(err, ErrRondaNotFound) {
		t.Fatalf("expected ErrRondaNotFound on foreign delete, got %v", err)
	}
	if _, err := svc.CreateArea(context.Background(), contratoB, CreateAreaInput{RondaID: ronda.ID, Nome: "Bombas"}); !errors.Is(err, ErrRondaNotFound) {
		t.Fatalf("expected ErrRondaNotFound on foreign area create, got %v", err)
	}
}

func TestUpdateRonda(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ronda := createRonda(t, svc, contratoA)

	if _, err := svc.UpdateRonda(context.Background(), UpdateRondaInput{ID: ronda.ID, ContratoID: contratoA}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty update, got %v", err)
	}

	nome := "Ronda Noturna"
	data := mustDate(t, "2024-03-11")
	updated, err := svc.UpdateRonda(context.Background(), UpdateRondaInput{
		ID: ronda.ID, ContratoID: contratoA, Nome: &nome, Data: &data,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Nome != nome || recurrence.FromTime(updated.Data) != data {
		t.Fatalf("unexpected ronda after update: %+v", updated)
	}
	if updated.Hora != "09:30" {
		t.Fatalf("untouched fields must be kept, got hora %q", updated.Hora)
	}
}

func TestDeleteRondaCascades(t *testing.T) {
	repo := newFakeRondasRepo()
	svc := NewService(repo)
	ctx := context.Background()
	ronda := createRonda(t, svc, contratoA)

	if _, err := svc.CreateArea(ctx, contratoA, CreateAreaInput{RondaID: ronda.ID, Nome: "Bombas"}); err != nil {
		t.Fatalf("create area: %v", err)
	}
	if _, err := svc.CreateItem(ctx, contratoA, CreateItemInput{RondaID: ronda.ID, Descricao: "Vazamento"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := svc.DeleteRonda(ctx, contratoA, ronda.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if repo.txs != 1 {
		t.Fatalf("expected delete inside one transaction, got %d", repo.txs)
	}
	if len(repo.areas) != 0 || len(repo.itens) != 0 {
		t.Fatalf("expected areas and itens removed, got %d areas %d itens", len(repo.areas), len(repo.itens))
	}
	if _, err := svc.GetRonda(ctx, contratoA, ronda.ID); !errors.Is(err, ErrRondaNotFound) {
		t.Fatalf("expected ErrRondaNotFound, got %v", err)
	}
}

func TestGetRondaDetail(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ctx := context.Background()
	ronda := createRonda(t, svc, contratoA)

	if _, err := svc.CreateArea(ctx, contratoA, CreateAreaInput{RondaID: ronda.ID, Nome: "Gerador", Status: AreaStatusAtencao}); err != nil {
		t.Fatalf("create area: %v", err)
	}
	if _, err := svc.CreateItem(ctx, contratoA, CreateItemInput{RondaID: ronda.ID, Descricao: "Lampada queimada", Prioridade: PrioridadeBaixa}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	detail, err := svc.GetRonda(ctx, contratoA, ronda.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Areas) != 1 || len(detail.Itens) != 1 {
		t.Fatalf("expected 1 area and 1 item, got %d and %d", len(detail.Areas), len(detail.Itens))
	}
	if detail.Areas[0].Status != AreaStatusAtencao {
		t.Fatalf("unexpected area status %s", detail.Areas[0].Status)
	}
}

func TestCreateAreaDefaultsAndValidation(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	ctx := context.Background()
	ronda := createRonda(t, svc, contratoA)

	blank := "  "
	area, err := svc.CreateArea(ctx, contratoA, CreateAreaInput{RondaID: ronda.ID, Nome: "Bombas", FotoURL: &blank})
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	if area.Status != AreaStatusAtivo {
		t.Fatalf("expected default status ATIVO, got %s", area.Status)
	}
	if area.FotoURL != nil {
		t.Fatalf("expected blank foto url dropped")
	}

	if _, err := svc.CreateArea(ctx, contratoA, CreateAreaInput{RondaID: ronda.ID, Nome: "Bombas", Status: "QUEBRADO"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}

	status := AreaStatusEmManutencao
	updated, err := svc.UpdateArea(ctx, contratoA, UpdateAreaInput{ID: area.ID, Status: &status})
	if err != nil {
		t.Fatalf("update area: %v", err)
	}
	if updated.Status != AreaStatusEmManutencao {
		t.Fatalf("expected EM_MANUTENCAO, got %s", updated.Status)
	}

	if err := svc.DeleteArea(ctx, contratoB, area.ID); !errors.Is(err, ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound for foreign contrato, got %v", err)
	}
	if err := svc.DeleteArea(ctx, contratoA, area.ID); err != nil {
		t.Fatalf("delete area: %v", err)
	}
}

func TestItemCorrigidoTracksTimestamp(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	fixed := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()
	ronda := createRonda(t, svc, contratoA)

	item, err := svc.CreateItem(ctx, contratoA, CreateItemInput{RondaID: ronda.ID, Descricao: "Vazamento"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Status != ItemStatusAberto || item.Prioridade != PrioridadeMedia {
		t.Fatalf("unexpected defaults: %+v", item)
	}

	corrigido := ItemStatusCorrigido
	updated, err := svc.UpdateItem(ctx, contratoA, UpdateItemInput{ID: item.ID, Status: &corrigido})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.CorrigidoEm == nil || !updated.CorrigidoEm.Equal(fixed) {
		t.Fatalf("expected corrigido_em %v, got %v", fixed, updated.CorrigidoEm)
	}

	open := ItemStatusAberto
	reopened, err := svc.UpdateItem(ctx, contratoA, UpdateItemInput{ID: item.ID, Status: &open})
	if err != nil {
		t.Fatalf("reopen item: %v", err)
	}
	if reopened.CorrigidoEm != nil {
		t.Fatalf("expected corrigido_em cleared on reopen")
	}

	abertos, err := svc.ListItens(ctx, contratoA, ronda.ID, &open)
	if err != nil {
		t.Fatalf("list itens: %v", err)
	}
	if len(abertos) != 1 {
		t.Fatalf("expected 1 open item, got %d", len(abertos))
	}

	bogus := ItemStatus("FECHADO")
	if _, err := svc.ListItens(ctx, contratoA, ronda.ID, &bogus); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status filter, got %v", err)
	}
}

func TestListRondasRejectsInvertedRange(t *testing.T) {
	svc := NewService(newFakeRondasRepo())
	from := mustDate(t, "2024-03-10")
	to := mustDate(t, "2024-03-01")

	if _, _, err := svc.ListRondas(context.Background(), contratoA, RondaFilter{From: &from, To: &to}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
