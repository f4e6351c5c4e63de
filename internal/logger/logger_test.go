package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, logrus.DebugLevel)

	l.WithField("stage", "topic_extraction").WithField("count", 3).Warn("阶段完成")

	line := buf.String()
	require.Contains(t, line, "[WARN]")
	require.Contains(t, line, "logger_test.go:")
	require.Contains(t, line, "阶段完成 count=3 stage=topic_extraction")
}

func TestInitLoggerWritesFile(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	path := t.TempDir() + "/logs/radar.log"
	require.NoError(t, InitLogger("debug", path))
	require.Equal(t, logrus.DebugLevel, Log.GetLevel())
}
