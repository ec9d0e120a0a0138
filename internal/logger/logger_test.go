package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestInit_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Service: "factcheck", Writer: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	C(ctx, Get()).Info().Str("verdict", "False").Msg("check complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", entry["request_id"])
	}
	if entry["service"] != "factcheck" {
		t.Errorf("expected service factcheck, got %v", entry["service"])
	}
	if entry["verdict"] != "False" {
		t.Errorf("expected verdict False, got %v", entry["verdict"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		"":        "info",
		"bogus":   "info",
		"off":     "disabled",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRequestID_Empty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); id != "" {
		t.Errorf("expected empty request id, got %q", id)
	}
}
