package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/engine/recorder"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warning": zerolog.WarnLevel,
		"off":      zerolog.Disabled,
		"nonsense": zerolog.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewAddsService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Service: "ffopts"}, &buf)
	logger.Info().Msg("hello")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0][FieldService] != "ffopts" {
		t.Fatalf("expected service field, got %v", lines)
	}
}

func TestApplyLoggerReportsFailedOption(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug"}, &buf)

	rec := recorder.New()
	rec.Reject(ffopts.CategoryCodec, "skip_frame", errors.New("bad value"))

	store := ffopts.New(StoreOptions(logger)...)
	_ = store.SetFormatInt("reconnect", 1)
	_ = store.SetCodecInt("skip_frame", 99)
	if err := store.Apply(rec); err == nil {
		t.Fatalf("expected apply failure")
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["level"] != "error" || entry["message"] != "options apply failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry[FieldPath] != "codec.skip_frame" || entry[FieldValue] != "99" {
		t.Fatalf("failed option missing: %v", entry)
	}
	if entry[FieldWritten] != float64(1) || entry[FieldStaged] != float64(2) {
		t.Fatalf("unexpected counters: %v", entry)
	}
}

func TestEvaluatorLoggerTracesRules(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "trace"}, &buf)

	rules, err := ffopts.NewRuleset([]ffopts.Rule{{
		Name:     "cellular timeout",
		When:     `args.network == "cellular"`,
		Category: ffopts.CategoryFormat,
		Key:      "timeout",
		Value:    ffopts.IntValue(60000000),
	}}, StoreOptions(logger)...)
	if err != nil {
		t.Fatalf("ruleset: %v", err)
	}
	store := ffopts.New()
	if _, err := rules.Stage(store, ffopts.RuleContext{Args: map[string]any{"network": "cellular"}}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	if lines[0][FieldRule] != "cellular timeout" || lines[0][FieldMatched] != true || lines[0][FieldEngine] != "expr" {
		t.Fatalf("unexpected entry: %v", lines[0])
	}
}

func TestCtxFallsBackToNop(t *testing.T) {
	if Ctx(context.Background()).GetLevel() != zerolog.Disabled {
		t.Fatalf("expected nop logger without context logger")
	}
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{}, &buf))
	l := Ctx(ctx)
	l.Info().Msg("x")
	if buf.Len() == 0 {
		t.Fatalf("expected context logger to be used")
	}
}

func TestGinMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	router := gin.New()
	router.Use(GinMiddleware(New(Config{}, &buf)))
	router.GET("/ping", func(c *gin.Context) {
		l := Ctx(c.Request.Context())
		l.Info().Msg("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get(HeaderRequestID) != "req-1" {
		t.Fatalf("request id not echoed: %v", rec.Header())
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line["request_id"] != "req-1" {
			t.Fatalf("missing request id: %v", line)
		}
	}
	if lines[1]["status"] != float64(http.StatusNoContent) {
		t.Fatalf("unexpected status field: %v", lines[1])
	}
}
