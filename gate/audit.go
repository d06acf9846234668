package gate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/fwgate/internal/uuid"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditValidateSuccess   AuditEvent = "validate_success"
	AuditValidateFailure   AuditEvent = "validate_failure"
	AuditValidateMalformed AuditEvent = "validate_malformed"
	AuditLogout            AuditEvent = "logout"
	AuditRedirect          AuditEvent = "redirect"
)

// auditLogger wraps slog.Logger for structured security audit logging.
// Neither the API key nor the derived token is ever passed to it.
type auditLogger struct {
	logger *slog.Logger
	alerts *failureCollector
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(level slog.Level, event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("event_id", uuid.New()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), level, "audit", baseAttrs...)
	if al.alerts != nil {
		al.alerts.recordEvent(event)
	}
}

func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, extra ...slog.Attr) {
	al.log(slog.LevelInfo, event, r, extra...)
}

// logFailure logs a rejected request together with the reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(slog.LevelWarn, event, r, attrs...)
}

// logRedirect is debug level: unauthenticated page loads are routine.
func (al *auditLogger) logRedirect(r *http.Request) {
	if !al.logger.Enabled(r.Context(), slog.LevelDebug) {
		return
	}
	al.log(slog.LevelDebug, AuditRedirect, r)
}
