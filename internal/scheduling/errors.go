package scheduling

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidInterval    = errors.New("start must be before end")
	ErrSchedulingConflict = errors.New("tutor is not available at the requested time")
	ErrSlotInUse          = errors.New("availability window has upcoming sessions")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
