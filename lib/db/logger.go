package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// GormLogger sends gorm output to slog. Statements issued while serving a
// request carry its request id.
type GormLogger struct {
	logger *slog.Logger
	level  gormlogger.LogLevel
}

func NewGormLogger(logger *slog.Logger) *GormLogger {
	return &GormLogger{logger: logger, level: gormlogger.Info}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, msg, l.attrs(ctx, slog.Any("data", data))...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, msg, l.attrs(ctx, slog.Any("data", data))...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, msg, l.attrs(ctx, slog.Any("data", data))...)
	}
}

// Trace logs one statement. Failures are logged at Warn because most of
// them (unknown genre or director) are answered as client errors upstream.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if !failed && elapsed <= slowQuery && !l.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	attrs := l.attrs(ctx,
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed))

	switch {
	case failed:
		l.logger.WarnContext(ctx, "Query failed", append(attrs, slog.Any("error", err))...)
	case elapsed > slowQuery:
		l.logger.WarnContext(ctx, "Slow query", attrs...)
	default:
		l.logger.DebugContext(ctx, "Query", attrs...)
	}
}

func (l *GormLogger) attrs(ctx context.Context, attrs ...any) []any {
	if id := middleware.GetReqID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	return attrs
}
