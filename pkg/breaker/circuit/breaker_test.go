package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedAllowsUntilFailureThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})

	require.True(t, b.Allow())
	b.Record(false)
	require.Equal(t, Closed, b.GetState())
	b.Record(false)
	require.Equal(t, Closed, b.GetState())
	b.Record(false)
	assert.Equal(t, Open, b.GetState())
}

func TestOpenRejectsUntilTimeout(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: 30 * time.Millisecond})

	b.Record(false)
	require.Equal(t, Open, b.GetState())
	assert.False(t, b.Allow())

	time.Sleep(40 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.GetState())
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Millisecond})

	b.Record(false)
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())

	b.Record(true)
	assert.Equal(t, HalfOpen, b.GetState())
	b.Record(true)
	assert.Equal(t, Closed, b.GetState())
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Millisecond})

	b.Record(false)
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, Open, b.GetState())
}

func TestClosedFailuresOutsideRollingWindowDoNotAccumulate(t *testing.T) {
	b := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute, RollingWindow: 20 * time.Millisecond})

	b.Record(false)
	require.Equal(t, Closed, b.GetState())

	time.Sleep(30 * time.Millisecond)
	b.Record(false)
	assert.Equal(t, Closed, b.GetState(), "first failure should have expired out of the rolling window")
}

func TestClosedFailuresWithinRollingWindowAccumulate(t *testing.T) {
	b := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute, RollingWindow: time.Minute})

	b.Record(false)
	require.Equal(t, Closed, b.GetState())
	b.Record(false)
	assert.Equal(t, Open, b.GetState())
}

func TestResetReturnsToClosed(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	b.Record(false)
	require.Equal(t, Open, b.GetState())

	b.Reset()
	assert.Equal(t, Closed, b.GetState())
	assert.True(t, b.Allow())
}
