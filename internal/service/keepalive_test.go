package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/atomity/research-server-go/internal/errors"
)

func TestKeepAliveErrorString(t *testing.T) {
	t.Run("app error surfaces its code", func(t *testing.T) {
		assert.Equal(t, "RESERVATION_NOT_HELD", keepAliveErrorString(apperrors.ReservationNotHeld()))
		assert.Equal(t, "RESERVATION_EXPIRED", keepAliveErrorString(apperrors.ReservationExpired()))
	})

	t.Run("plain error collapses to generic status", func(t *testing.T) {
		assert.Equal(t, "KEEP_ALIVE_FAILED", keepAliveErrorString(errors.New("redis down")))
	})
}
