package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	logger.Debug("hidden")
	logger.WithField("root", "server").Info("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "root=server")
}

func TestNew_UnknownLevelFallsBackToWarn(t *testing.T) {
	logger := New("verbose-ish", &bytes.Buffer{})
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := New("debug", &bytes.Buffer{})
	assert.Same(t, l, OrDiscard(l))
}
