package contratos

import "errors"

var (
	ErrContratoNotFound = errors.New("contrato not found")
	ErrContratoExists   = errors.New("contrato already exists")
	ErrInvalidContrato  = errors.New("invalid contrato")
)
