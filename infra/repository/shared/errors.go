// Package shared holds helpers used by every gorm repository.
package shared

import (
	"errors"

	"gorm.io/gorm"

	"github.com/solventhq/walletcore/pkg/domain"
)

// MapGormErrorToDomain converts gorm errors to domain errors, traversing
// the error chain. This keeps database error shapes inside the
// infrastructure layer; the duplicate-key mapping is what powers the
// idempotency backstop on (tenant, externalRef).
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}
