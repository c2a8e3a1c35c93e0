package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGormLogger(level slog.Level) (*GormLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return NewGormLogger(logger), &buf
}

func TestTraceSkipsRenderingWhenDebugDisabled(t *testing.T) {
	l, buf := newTestGormLogger(slog.LevelInfo)

	rendered := false
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		rendered = true
		return "SELECT 1", 1
	}, nil)

	assert.False(t, rendered)
	assert.Empty(t, buf.String())
}

func TestTraceLogsFailuresAtAnyLevel(t *testing.T) {
	l, buf := newTestGormLogger(slog.LevelInfo)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO peliculas", 0
	}, errors.New("FOREIGN KEY constraint failed"))

	assert.Contains(t, buf.String(), `"msg":"Query failed"`)
	assert.Contains(t, buf.String(), "INSERT INTO peliculas")
}

func TestTraceLogsSlowQueries(t *testing.T) {
	l, buf := newTestGormLogger(slog.LevelInfo)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM vista_peliculas", 3
	}, nil)

	assert.Contains(t, buf.String(), `"msg":"Slow query"`)
}

func TestTraceLogsEveryQueryAtDebug(t *testing.T) {
	l, buf := newTestGormLogger(slog.LevelDebug)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	assert.Contains(t, buf.String(), `"msg":"Query"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
}

func TestTraceSilent(t *testing.T) {
	l, buf := newTestGormLogger(slog.LevelDebug)
	silent := l.LogMode(gormlogger.Silent)

	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))

	assert.Empty(t, buf.String())
}
