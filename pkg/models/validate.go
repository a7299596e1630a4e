package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validatorInst *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// Validate runs struct-tag validation (`validate:"..."`) against v. Used by
// PipelineRequest and ExecutionRequest to enforce the non-empty/min-value
// invariants of the data model table (§3) without hand-rolling field checks.
func Validate(v any) error {
	return instance().Struct(v)
}
