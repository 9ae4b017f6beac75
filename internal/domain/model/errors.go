package model

import "errors"

// Sentinel errors for item validation.
var (
	// ErrBlankContent rejects items created with empty or whitespace-only content.
	ErrBlankContent = errors.New("item content must not be blank")
	// ErrUnknownStage rejects stage labels outside the nine-stage workflow.
	ErrUnknownStage = errors.New("unknown workflow stage")
)
