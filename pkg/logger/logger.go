// Package logger builds the zap logger and the gin access-log and recovery middleware.
package logger

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/campus-api/pkg/config"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-api/pkg/response"
)

// ActorKey is the gin context key handlers may set to tag access logs with the caller id.
const ActorKey = "log_actor_id"

// New builds a JSON (or console) logger. Production samples repeated entries.
func New(cfg *config.Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Log.Level))); err != nil {
			level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg := zap.Config{
		Level:            level,
		Development:      !cfg.IsProduction(),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": "campus-api", "env": cfg.Env},
	}
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.IsProduction() {
		zapCfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	return zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// FromContext tags base with the request id carried by ctx, when there is one.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return base.With(zap.String("request_id", id))
	}
	return base
}

// GinMiddleware writes one access log line per request: warn for 4xx, error for 5xx.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := make([]zap.Field, 0, 9)
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		)
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if actor := c.GetString(ActorKey); actor != "" {
			fields = append(fields, zap.String("actor_id", actor))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}

// Recovery turns a handler panic into a logged 500 with the standard error body.
// Broken client connections are logged without a response.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Value(c)),
			}
			if brokenPipe(rec) {
				l.Warn("client connection lost", fields...)
				c.Abort()
				return
			}
			l.Error("handler panic", append(fields, zap.Stack("stack"))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, appErrors.Clone(appErrors.ErrInternal, ""))
			c.Abort()
		}()
		c.Next()
	}
}

func brokenPipe(rec interface{}) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
