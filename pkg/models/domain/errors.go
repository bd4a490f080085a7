package domain

import "errors"

var (
	ErrInvalidCadence      = errors.New("invalid cadence")
	ErrMissingKeyColumn    = errors.New("missing key column")
	ErrMissingPeriodColumn = errors.New("missing period column")
)
