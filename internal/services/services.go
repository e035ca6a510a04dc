// Package services orchestrates ledger writes, event publication and
// report computation on top of the ledger ports.
package services

import (
	"context"
	"errors"

	"bjt/internal/amqp"
	"bjt/internal/core"
)

// EventPublisher sends ledger change notifications. *amqp.Client
// satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// ReportInvalidator drops cached reports for a period.
type ReportInvalidator interface {
	Invalidate(period core.Period)
}

// ValidationError marks input the caller must fix. It wraps the core
// sentinel that failed.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
