// Package svcutil holds helpers shared by the entity services.
package svcutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Additional-Code/bistro/internal/repository/crud"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

// StoreError translates repository sentinels into application errors for subject.
func StoreError(err error, subject, action string) error {
	switch {
	case err == nil:
		return nil
	case errorbank.From(err).Kind() != errorbank.KindInternal:
		return err
	case errors.Is(err, crud.ErrNotFound):
		return errorbank.NotFound(subject + " not found")
	case errors.Is(err, crud.ErrDuplicate):
		return errorbank.Conflict(subject + " already exists")
	case errors.Is(err, crud.ErrReferenced):
		return errorbank.Conflict(subject + " is still in use")
	default:
		return errorbank.Internal(fmt.Sprintf("failed to %s %s", action, subject), errorbank.WithCause(err))
	}
}

// TrimPtr trims the pointed-to string in place.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
