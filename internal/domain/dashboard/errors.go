package dashboard

import "errors"

var ErrInvalidFilter = errors.New("invalid dashboard filter")
