package logger

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerCarriesServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("kern")
	l.SetOutput(&buf)
	l.SetLevel(InfoLevel)

	l.Info("mapped pages")

	out := buf.String()
	assert.Contains(t, out, "service=kern")
	assert.Contains(t, out, "mapped pages")
}

func TestDefaultLevelSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("stress")
	l.SetOutput(&buf)

	l.Info("should not appear")
	assert.Empty(t, buf.String())

	l.Error("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetLevelAndFormat(t *testing.T) {
	defer SetLevelAndFormat(ErrorLevel, &log.TextFormatter{})

	SetLevelAndFormat(DebugLevel, &log.JSONFormatter{})

	var buf bytes.Buffer
	l := NewLogger("cli")
	l.SetOutput(&buf)

	l.Debugf("scenario %s", "spawn-join")

	out := buf.String()
	assert.Contains(t, out, `"service":"cli"`)
	assert.Contains(t, out, "scenario spawn-join")
}

func TestTracefBelowDebugIsSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("kern")
	l.SetOutput(&buf)
	l.SetLevel(DebugLevel)

	l.Tracef("thread %d created", 3)
	assert.Empty(t, buf.String())

	l.SetLevel(TraceLevel)
	l.Tracef("thread %d created", 3)
	assert.Contains(t, buf.String(), "thread 3 created")
}
