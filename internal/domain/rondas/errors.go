package rondas

import "errors"

var (
	ErrRondaNotFound = errors.New("ronda not found")
	ErrAreaNotFound  = errors.New("area tecnica not found")
	ErrItemNotFound  = errors.New("item relevante not found")
	ErrAlreadyExists = errors.New("record with this id already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
