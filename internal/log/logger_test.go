package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bjt/internal/core"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentReport, Output: &buf})

	l.Debug("hidden")
	l.Info("built", FieldPeriod, "2024-03")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["component"] != ComponentReport || rec[FieldPeriod] != "2024-03" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}))

	sl.LogTransactionSaved(context.Background(), OpCreate, core.Transaction{
		ID: "t1", Date: core.NewDate(2024, 3, 5), AssetType: core.AssetCar, AssetName: "Veloz 2021",
		Price: decimal.NewFromInt(200000), DailyCash: decimal.NewFromInt(20000),
	})
	sl.LogError(context.Background(), "failed", errors.New("boom"), ComponentStorage, OpList, nil)

	out := buf.String()
	for _, want := range []string{"transaction_id=t1", "period=2024-03", "daily_cash=20000", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	var got *Logger
	h := Middleware(base)(ComponentMiddleware(ComponentHTTP)(RequestIDMiddleware(func(*http.Request) string {
		return "req-1"
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		got.Info("inside")
	}))))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http component logger, got %+v", got)
	}
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("fallback logger should be unknown component")
	}
}

func TestRecordsCarryOneComponent(t *testing.T) {
	tx := core.Transaction{
		ID: "t1", Date: core.NewDate(2024, 3, 5), AssetType: core.AssetSpeedboat, AssetName: "Speed Boat BJT 01",
		Price: decimal.NewFromInt(100000), DailyCash: decimal.NewFromInt(10000),
	}
	cases := []struct {
		name      string
		component string
	}{
		{"transaction logger", ComponentTransaction},
		{"other logger", ComponentApp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := New(Config{Level: slog.LevelInfo, Component: tc.component, Output: &buf})
			NewStructuredLogger(base).LogTransactionSaved(context.Background(), OpCreate, tx)

			out := buf.String()
			if n := strings.Count(out, FieldComponent+"="); n != 1 {
				t.Fatalf("expected one component key, got %d:\n%s", n, out)
			}
			if !strings.Contains(out, "component="+ComponentTransaction) {
				t.Fatalf("expected transaction component:\n%s", out)
			}
		})
	}

	var buf bytes.Buffer
	New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}).
		WithComponent(ComponentHTTP).
		Info("scoped")
	if n := strings.Count(buf.String(), FieldComponent+"="); n != 1 || !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("expected a single http component:\n%s", buf.String())
	}
}
