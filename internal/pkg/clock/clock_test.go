package clock_test

import (
	"testing"
	"time"

	"orderbot/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	start := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	c := clock.NewManual(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Advance(time.Minute))

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSystem_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UZT", 5*60*60)
	assert.Equal(t, loc, clock.NewSystem(loc).Now().Location())
	assert.Equal(t, time.UTC, clock.NewSystem(nil).Now().Location())
}
