package agenda

import "errors"

var (
	ErrItemNotFound    = errors.New("agenda item not found")
	ErrAlreadyExists   = errors.New("agenda item with this id already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPeriodTooLong   = errors.New("period too long")
	ErrNotRecurring    = errors.New("agenda item is not recurring")
	ErrNotAnOccurrence = errors.New("date is not an occurrence of the agenda item")
)
