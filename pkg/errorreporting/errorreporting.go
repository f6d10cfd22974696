// Package errorreporting sends unexpected failures to Sentry.
package errorreporting

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/cod-risk/pkg/config"
	"github.com/richxcame/cod-risk/pkg/logger"
)

const flushTimeout = 2 * time.Second

// FlushFunc waits for buffered events to be delivered
type FlushFunc func()

// Init configures the global Sentry client. Reporting is disabled when the DSN is empty.
func Init(cfg config.SentryConfig, environment, release string) (FlushFunc, bool, error) {
	if cfg.DSN == "" {
		return func() {}, false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, false, err
	}
	return func() { sentry.Flush(flushTimeout) }, true, nil
}

// Middleware attaches a per-request hub and reports panics before re-raising them
func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// Capture reports err on the request's hub, falling back to the global hub
func Capture(c *gin.Context, err error) {
	if err == nil {
		return
	}
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("route", c.FullPath())
		if id := logger.CorrelationIDFromContext(c.Request.Context()); id != "" {
			scope.SetTag("correlation_id", id)
		}
		hub.CaptureException(err)
	})
}
