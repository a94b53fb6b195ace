package workflow

import (
	"errors"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = apperr.ErrInvalidTransition

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")
)
