package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	return out
}

func TestLogger_StampsRequestAndTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ctx = WithRequestID(ctx, "req-123")
	log.InfoContext(ctx, "hello")

	line := decodeLine(t, &buf)
	if line["request_id"] != "req-123" {
		t.Fatalf("request_id missing: %v", line)
	}
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id mismatch: %v", line)
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be suppressed outside dev: %s", buf.String())
	}

	NewLoggerTo(&buf, "dev").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug should be emitted in dev")
	}
}

func TestAuditAndSecurity(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	Audit(context.Background(), log, "user.delete", 1, "target_id", int64(2))
	line := decodeLine(t, &buf)
	if line["msg"] != "audit" || line["action"] != "user.delete" || line["actor_id"] != float64(1) {
		t.Fatalf("unexpected audit line: %v", line)
	}

	buf.Reset()
	Security(context.Background(), log, "login_failed", "email", "a@x.com")
	line = decodeLine(t, &buf)
	if line["level"] != "WARN" || line["event"] != "login_failed" {
		t.Fatalf("unexpected security line: %v", line)
	}
}

func TestAuditCarriesClient(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	ctx := WithClient(context.Background(), "10.0.0.1", "curl/8")
	Audit(ctx, log, "auth.login", 1)

	line := decodeLine(t, &buf)
	if line["ip"] != "10.0.0.1" || line["user_agent"] != "curl/8" {
		t.Fatalf("client info missing: %v", line)
	}
}

func TestProm_ExposesServiceMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	p := NewProm(reg, func() int { return 3 })

	p.ObserveLogin("success")
	p.ObserveTokenReject("expired")
	p.ObserveUserOp("create", nil)
	p.ObserveUserOp("create", errors.New("boom"))

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(p.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	text := string(body)

	for _, want := range []string{
		`userhub_users_registered 3`,
		`userhub_auth_logins_total{result="success"} 1`,
		`userhub_auth_token_rejections_total{reason="expired"} 1`,
		`userhub_users_operations_total{op="create",result="error"} 1`,
		`userhub_http_requests_total{method="GET",route="/ping",status="200"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, text)
		}
	}
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "userhub", "test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown failed: %v", err)
	}
}
