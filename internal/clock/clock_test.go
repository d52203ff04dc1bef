package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/clock"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "2024-03-09 14:05:07", clock.Format(ts))
}

func TestFormatPtr(t *testing.T) {
	assert.Nil(t, clock.FormatPtr(nil))

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	got := clock.FormatPtr(&ts)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-01 03:00:00", *got)
}
