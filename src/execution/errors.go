package execution

import (
	"fmt"
)

var (
	ErrPositionLimitExceeded = fmt.Errorf("position limit exceeded")
	ErrTotalExposureExceeded = fmt.Errorf("total exposure limit exceeded")
)

type PositionLimitExceededError struct {
	Symbol string
	Amount int64
	Limit  int64
}

func (e *PositionLimitExceededError) Error() string {
	return fmt.Sprintf("%s: position amount %d exceeds limit %d", e.Symbol, e.Amount, e.Limit)
}

func (e *PositionLimitExceededError) Unwrap() error {
	return ErrPositionLimitExceeded
}

type TotalExposureExceededError struct {
	Additional int64
	Current    int64
	Limit      int64
}

func (e *TotalExposureExceededError) Error() string {
	return fmt.Sprintf("total exposure %d + %d exceeds limit %d", e.Current, e.Additional, e.Limit)
}

func (e *TotalExposureExceededError) Unwrap() error {
	return ErrTotalExposureExceeded
}
