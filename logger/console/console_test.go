package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugLevelToggle(t *testing.T) {
	var buf bytes.Buffer
	l := New(Params{Output: &buf})
	l.Debug("hidden")
	l.Info("shown", "batch", 7)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "batch=7")

	buf.Reset()
	l = New(Params{Debug: true, Output: &buf})
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
