package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextFieldsFlowIntoEntries(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	ctx := logg.WithOrderID(context.Background(), "68a1f0")
	ctx = logg.WithPaymentID(ctx, "PAY9")
	logg.Info(ctx, "payment settled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	if entry["order_id"] != "68a1f0" || entry["payment_id"] != "PAY9" {
		t.Fatalf("expected both ids on the entry, got %v", entry)
	}
	if entry["service"] != "api" || entry["message"] != "payment settled" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestFieldsStayOnTheirContext(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	_ = logg.WithOrderID(context.Background(), "68a1f0")
	logg.Info(context.Background(), "plain entry")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	if _, ok := entry["order_id"]; ok {
		t.Fatalf("order id must not leak onto other contexts, got %v", entry)
	}
}
