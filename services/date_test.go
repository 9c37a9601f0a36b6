package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skip("timezone data unavailable")
	}

	got := StartOfDay(time.Date(2026, 3, 14, 23, 59, 59, 999, bogota))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, bogota), got)
	assert.Equal(t, bogota, got.Location())

	assert.True(t, StartOfDay(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
