package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(500 * time.Millisecond)

	for _, attempts := range []uint{0, 1, 2, 100} {
		assert.Equal(t, 500*time.Millisecond, s(attempts))
	}
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3)

	for attempts, expected := range map[uint]time.Duration{
		0: 2 * time.Second,
		1: 2 * time.Second,
		2: 6 * time.Second,
		3: 18 * time.Second,
		4: 54 * time.Second,
	} {
		assert.Equal(t, expected, s(attempts), "attempt %d", attempts)
	}
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 2*time.Second, s(2))
	assert.Equal(t, 4*time.Second, s(3))
	assert.Equal(t, 8*time.Second, s(4))
}

func TestExponential_Saturates(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, maxDelay, s(100))
	assert.Equal(t, maxDelay, s(10_000))
	assert.True(t, s(40) > 0)
}
