package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIntakeLogJSONUsesUnixMillis(t *testing.T) {
	created := time.UnixMilli(1710500000123)
	log := IntakeLog{ID: "a", Beverage: "water", AmountMl: 250, CreatedAt: created}

	raw, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"createdAt":1710500000123`) || !strings.Contains(string(raw), `"amount":250`) {
		t.Fatalf("unexpected wire form: %s", raw)
	}

	var decoded IntakeLog
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != log {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, log)
	}
}

func TestIntakeLogValidate(t *testing.T) {
	log := IntakeLog{ID: "a", AmountMl: 0, CreatedAt: time.Now()}
	if err := log.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	log.AmountMl = 1
	if err := log.Validate(); err != nil {
		t.Fatalf("expected valid log: %v", err)
	}
}
