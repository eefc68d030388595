package observability

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const auditEventVersion = 1

type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorUserID  string `json:"actor_user_id"`
	ActorIP      string `json:"actor_ip"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

type AuditInput struct {
	EventName   string
	ActorUserID string
	Outcome     string
	Reason      string
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	actor := in.ActorUserID
	if actor == "" {
		actor = "anonymous"
	}
	return AuditEvent{
		EventVersion: auditEventVersion,
		EventName:    in.EventName,
		ActorUserID:  actor,
		ActorIP:      clientIP(r),
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    r.Header.Get("X-Request-Id"),
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	var missing []string
	if e.EventName == "" {
		missing = append(missing, "event_name")
	}
	if e.Outcome == "" {
		missing = append(missing, "outcome")
	}
	if e.TS == "" {
		missing = append(missing, "ts")
	}
	if len(missing) > 0 {
		return errors.New("audit event missing " + strings.Join(missing, ","))
	}
	return nil
}

// Audit writes one structured audit line for an auth or profile event.
func Audit(r *http.Request, in AuditInput, attrs ...any) {
	ev := BuildAuditEvent(r, in)
	if err := ev.Validate(); err != nil {
		slog.WarnContext(r.Context(), "dropping invalid audit event", "error", err)
		return
	}
	base := []any{
		"event", ev.EventName,
		"event_version", ev.EventVersion,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		base = append(base, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
