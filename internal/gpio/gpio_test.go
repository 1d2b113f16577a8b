package gpio

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "low", Low.String())
	assert.Equal(t, "high", High.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"low", Low, false},
		{"LOW", Low, false},
		{"High", High, false},
		{" high ", High, false},
		{"1", Low, true},
		{"", Low, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	out, err := Open("bogus", "gpiochip0", log.New())
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), BackendChip)
}

func TestOpenDryRun(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)

	out, err := Open(BackendDryRun, "", logger)
	require.NoError(t, err)

	dry, ok := out.(*DryRunOutput)
	require.True(t, ok, "expected *DryRunOutput, got %T", out)

	_, ok = dry.Level(17)
	assert.False(t, ok, "no level before the pin is configured")

	require.NoError(t, dry.SetOutput(17, Low))
	lvl, ok := dry.Level(17)
	assert.True(t, ok)
	assert.Equal(t, Low, lvl, "initial level is driven on configure")

	require.NoError(t, dry.Write(17, High))
	lvl, ok = dry.Level(17)
	assert.True(t, ok)
	assert.Equal(t, High, lvl)

	assert.Contains(t, buf.String(), "direction --> OUT")
	assert.Contains(t, buf.String(), "value=high")
	assert.NoError(t, dry.Close())
}
