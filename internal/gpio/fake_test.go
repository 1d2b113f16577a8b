package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeOutputRecordsInOrder(t *testing.T) {
	f := NewFakeOutput()

	require.NoError(t, f.SetOutput(7, High))
	require.NoError(t, f.Write(7, High))
	f.Sleep(250 * time.Millisecond)
	require.NoError(t, f.Write(7, Low))

	want := []Op{
		{Kind: OpSetOutput, Pin: 7, Level: High},
		{Kind: OpWrite, Pin: 7, Level: High},
		{Kind: OpDelay, Delay: 250 * time.Millisecond},
		{Kind: OpWrite, Pin: 7, Level: Low},
	}
	assert.Equal(t, want, f.Ops)
}

func TestFakeOutputWritesAndDelays(t *testing.T) {
	f := NewFakeOutput()

	f.SetOutput(3, High)
	f.Write(3, Low)
	f.Sleep(time.Second)
	f.Write(4, High)

	assert.Equal(t, []PinWrite{{Pin: 3, Level: Low}, {Pin: 4, Level: High}}, f.Writes(), "initial levels are not writes")
	assert.Equal(t, []time.Duration{time.Second}, f.Delays())
}

func TestFakeOutputErrors(t *testing.T) {
	f := NewFakeOutput()
	f.SetOutputError = errors.New("no such line")
	f.WriteError = errors.New("simulated error")

	assert.EqualError(t, f.SetOutput(1, Low), "no such line")
	assert.EqualError(t, f.Write(1, High), "simulated error")
	assert.Empty(t, f.Ops, "failed calls must not be recorded")
}

func TestFakeOutputCloseAndReset(t *testing.T) {
	f := NewFakeOutput()
	f.Write(1, High)
	f.WriteError = errors.New("x")

	assert.False(t, f.Closed, "should not be closed initially")
	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Reset()
	assert.False(t, f.Closed)
	assert.Nil(t, f.Ops)
	assert.NoError(t, f.Write(1, Low))
}
