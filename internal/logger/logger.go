package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const RequestIDHeader = "X-Request-ID"

// Setup builds the process logger. In dev it writes a human readable console
// stream; otherwise JSON. A non-empty file adds a rotating log file.
func Setup(dev bool, level, file string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if dev && lvl > zerolog.DebugLevel && level == "" {
		lvl = zerolog.DebugLevel
	}

	var out io.Writer = os.Stderr
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}
	}
	if file != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if dev {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// RequestLogger attaches a request-scoped logger (with a request id) to the
// request context and logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		l := log.With().Str("request_id", reqID).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("duration", time.Since(started)).
			Msg("http request")
	}
}
