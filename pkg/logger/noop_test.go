package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureLogger(t *testing.T) {
	l := EnsureLogger(nil)
	assert.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Debug("msg", "key", 1)
		l.With("component", "test").Info("msg")
	})

	custom := NewNoOpLogger()
	assert.Same(t, custom, EnsureLogger(custom))
}

func TestNew(t *testing.T) {
	l, err := New("")
	assert.NoError(t, err)
	assert.NotNil(t, l)
}
