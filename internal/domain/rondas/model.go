package rondas

import (
	"time"

	"gorm.io/gorm"

	"ronda-app-go/internal/recurrence"
)

type AreaStatus string

const (
	AreaStatusAtivo        AreaStatus = "ATIVO"
	AreaStatusEmManutencao AreaStatus = "EM_MANUTENCAO"
	AreaStatusAtencao      AreaStatus = "ATENCAO"
)

func (s AreaStatus) Valid() bool {
	switch s {
	case AreaStatusAtivo, AreaStatusEmManutencao, AreaStatusAtencao:
		return true
	default:
		return false
	}
}

type Prioridade string

const (
	PrioridadeBaixa Prioridade = "BAIXA"
	PrioridadeMedia Prioridade = "MEDIA"
	PrioridadeAlta  Prioridade = "ALTA"
)

func (p Prioridade) Valid() bool {
	switch p {
	case PrioridadeBaixa, PrioridadeMedia, PrioridadeAlta:
		return true
	default:
		return false
	}
}

type ItemStatus string

const (
	ItemStatusAberto    ItemStatus = "ABERTO"
	ItemStatusCorrigido ItemStatus = "CORRIGIDO"
)

func (s ItemStatus) Valid() bool {
	return s == ItemStatusAberto || s == ItemStatusCorrigido
}

// Ronda is one logged visit to a contrato's property.
type Ronda struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	ContratoID  string         `gorm:"type:uuid;index;not null"`
	Nome        string         `gorm:"not null"`
	Data        time.Time      `gorm:"type:date;not null"`
	Hora        string         `gorm:"type:varchar(5);not null;default:''"`
	Responsavel string         `gorm:"not null;default:''"`
	Observacoes string         `gorm:"not null;default:''"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// AreaTecnica is the state of one technical area (pumps, generator, ...)
// observed during a ronda.
type AreaTecnica struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	RondaID     string         `gorm:"type:uuid;index;not null"`
	Nome        string         `gorm:"not null"`
	Status      AreaStatus     `gorm:"type:varchar(16);not null"`
	Observacoes string         `gorm:"not null;default:''"`
	FotoURL     *string        `gorm:"column:foto_url"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (AreaTecnica) TableName() string {
	return "areas_tecnicas"
}

// ItemRelevante is something found during a ronda that needs correcting.
type ItemRelevante struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	RondaID     string         `gorm:"type:uuid;index;not null"`
	Descricao   string         `gorm:"not null"`
	Prioridade  Prioridade     `gorm:"type:varchar(8);not null"`
	Status      ItemStatus     `gorm:"type:varchar(16);not null"`
	FotoURL     *string        `gorm:"column:foto_url"`
	CorrigidoEm *time.Time     `gorm:"column:corrigido_em"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ItemRelevante) TableName() string {
	return "itens_relevantes"
}

type RondaDetail struct {
	Ronda Ronda
	Areas []AreaTecnica
	Itens []ItemRelevante
}

type RondaFilter struct {
	From   *recurrence.Date
	To     *recurrence.Date
	Limit  int
	Offset int
}

type CreateRondaInput struct {
	ID          string
	ContratoID  string
	Nome        string
	Data        recurrence.Date
	Hora        string
	Responsavel string
	Observacoes string
}

type UpdateRondaInput struct {
	ID          string
	ContratoID  string
	Nome        *string
	Data        *recurrence.Date
	Hora        *string
	Responsavel *string
	Observacoes *string
}

type CreateAreaInput struct {
	ID          string
	RondaID     string
	Nome        string
	Status      AreaStatus
	Observacoes string
	FotoURL     *string
}

type UpdateAreaInput struct {
	ID          string
	Nome        *string
	Status      *AreaStatus
	Observacoes *string
	FotoURL     *string
}

type CreateItemInput struct {
	ID         string
	RondaID    string
	Descricao  string
	Prioridade Prioridade
	FotoURL    *string
}

type UpdateItemInput struct {
	ID         string
	Descricao  *string
	Prioridade *Prioridade
	Status     *ItemStatus
	FotoURL    *string
}
