package contratos

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusAtivo     Status = "ATIVO"
	StatusEncerrado Status = "ENCERRADO"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusAtivo, StatusEncerrado:
		return Status(value), true
	default:
		return "", false
	}
}

// Contrato is the managed property every ronda and agenda item belongs to.
type Contrato struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	Nome      string         `gorm:"not null"`
	Endereco  string         `gorm:"not null;default:''"`
	Sindico   string         `gorm:"not null;default:''"`
	Status    Status         `gorm:"type:varchar(16);not null;default:'ATIVO'"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type ListFilter struct {
	Query  string
	Status Status
	Limit  int
	Offset int
}

type CreateContratoInput struct {
	ID       string
	Nome     string
	Endereco string
	Sindico  string
}

type UpdateContratoInput struct {
	ID       string
	Nome     *string
	Endereco *string
	Sindico  *string
	Status   *Status
}
