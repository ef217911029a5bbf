package svcutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/bistro/internal/repository/crud"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

func TestStoreError(t *testing.T) {
	assert.NoError(t, StoreError(nil, "table", "load"))

	err := StoreError(crud.ErrNotFound, "table", "load")
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
	assert.Equal(t, "table not found", errorbank.From(err).Message())

	err = StoreError(fmt.Errorf("%w: unique", crud.ErrDuplicate), "category", "create")
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))

	err = StoreError(fmt.Errorf("%w: FOREIGN KEY constraint failed", crud.ErrReferenced), "product", "delete")
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))
	assert.Equal(t, "product is still in use", errorbank.From(err).Message())
	assert.Equal(t, 409, errorbank.From(err).StatusCode())

	err = StoreError(errors.New("disk full"), "category", "create")
	assert.Equal(t, "failed to create category", errorbank.From(err).Message())

	conflict := errorbank.Conflict("table is occupied")
	assert.Same(t, conflict, StoreError(conflict, "table", "occupy"))
}

func TestTrimPtr(t *testing.T) {
	assert.Nil(t, TrimPtr(nil))
	s := "  T-001 "
	assert.Equal(t, "T-001", *TrimPtr(&s))
}
