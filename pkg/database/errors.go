package database

import (
	"github.com/lib/pq"

	"github.com/talentvault/talentvault-backend/pkg/errors"
)

// PostgreSQL error codes the repositories care about
const (
	codeStringTooLong   = "22001"
	codeNotNull         = "23502"
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeInvalidJSON     = "22P02"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or has no specific mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case codeStringTooLong:
		// Extracted names and emails are bounded columns; report which one overflowed when known
		col := pqErr.Column
		if col == "" {
			col = "value"
		}
		return errors.Validation(map[string]string{
			col: "is too long",
		})

	case codeNotNull:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	case codeUniqueViolation:
		return errors.Conflict("a record with these values already exists")

	case codeCheckViolation:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)

	case codeInvalidJSON:
		return errors.BadRequest("malformed value: " + pqErr.Message)

	default:
		return nil
	}
}
