package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-9876543, "-9,876,543"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestTerminalWidthColumnsOverride(t *testing.T) {
	t.Setenv("COLUMNS", "87")
	assert.Equal(t, 87, terminalWidth())

	t.Setenv("COLUMNS", "not a number")
	assert.Equal(t, 0, envColumns())

	t.Setenv("COLUMNS", "-5")
	assert.Equal(t, 0, envColumns())
}

func TestUseCompact(t *testing.T) {
	assert.True(t, useCompact(TableOptions{ForceCompact: true}))

	t.Setenv("COLUMNS", "80")
	assert.True(t, useCompact(TableOptions{}))

	t.Setenv("COLUMNS", "140")
	assert.False(t, useCompact(TableOptions{}))
}
