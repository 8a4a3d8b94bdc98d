package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickSizeTiers(t *testing.T) {
	assert.Equal(t, 0.01, TickSize(5))
	assert.Equal(t, 0.01, TickSize(9.99))
	assert.Equal(t, 0.05, TickSize(10))
	assert.Equal(t, 0.05, TickSize(49.99))
	assert.Equal(t, 0.1, TickSize(50))
	assert.Equal(t, 0.5, TickSize(100))
	assert.Equal(t, 1.0, TickSize(500))
	assert.Equal(t, 5.0, TickSize(1000))
	assert.Equal(t, 5.0, TickSize(12345))
}

func TestRoundToTick(t *testing.T) {
	assert.Equal(t, 9.99, RoundToTick(9.994))
	assert.Equal(t, 10.0, RoundToTick(9.996))
	assert.Equal(t, 25.05, RoundToTick(25.07))
	assert.Equal(t, 75.3, RoundToTick(75.34))
	assert.Equal(t, 250.5, RoundToTick(250.7))
	assert.Equal(t, 751.0, RoundToTick(750.6))
	assert.Equal(t, 1235.0, RoundToTick(1234.2))
}

func TestRoundToTickIdempotent(t *testing.T) {
	prices := []float64{0.013, 3.14159, 9.996, 42.42, 99.99, 123.45, 555.5, 999.4, 4821.7}
	for _, p := range prices {
		once := RoundToTick(p)
		assert.Equal(t, once, RoundToTick(once), "price %v", p)
	}
}

func TestFloorCeilToTick(t *testing.T) {
	assert.Equal(t, 25.05, FloorToTick(25.09))
	assert.Equal(t, 25.1, CeilToTick(25.06))

	// floor never exceeds the input, ceil never undercuts it
	for _, p := range []float64{1.234, 17.77, 63.21, 432.1, 1701.0} {
		assert.LessOrEqual(t, FloorToTick(p), p)
		assert.GreaterOrEqual(t, CeilToTick(p), p)
	}
}

func TestClampKillsFloatDrift(t *testing.T) {
	// 0.1+0.2 style artifacts must not survive rounding
	assert.Equal(t, 0.3, RoundToTick(0.1+0.2))
}
