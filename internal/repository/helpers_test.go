package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleNotFound(t *testing.T) {
	type row struct {
		ID string
	}

	t.Run("passes through a found row", func(t *testing.T) {
		r := &row{ID: "abc"}
		got, err := HandleNotFound(r, nil)
		require.NoError(t, err)
		assert.Same(t, r, got)
	})

	t.Run("converts ErrNoRows to nil, nil", func(t *testing.T) {
		got, err := HandleNotFound(&row{}, sql.ErrNoRows)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("converts wrapped ErrNoRows", func(t *testing.T) {
		got, err := HandleNotFound(&row{}, fmt.Errorf("get reservation: %w", sql.ErrNoRows))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("returns other errors", func(t *testing.T) {
		boom := errors.New("connection reset")
		got, err := HandleNotFound(&row{}, boom)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, boom)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "company_registry_company_name_normalized_key"}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert reservation: %w", unique)))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("not a pq error")))
	assert.False(t, IsUniqueViolation(nil))
}
