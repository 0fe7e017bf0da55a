package model

import "errors"

var (
	ErrNotEnoughBalance         = errors.New("not enough balance")
	ErrNotEnoughReservedBalance = errors.New("not enough reserved balance")
	ErrPayerNotResolved         = errors.New("payer not resolved")
)
