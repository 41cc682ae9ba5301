package storage

import "errors"

const (
	UniqueViolation = "23505"
)

var (
	ErrProductExists   = errors.New("product is already tracked")
	ErrProductNotFound = errors.New("product not found")
)
