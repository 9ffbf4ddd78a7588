package org

import (
	"encoding/json"
	"testing"
)

func TestDecodeSettingsEmpty(t *testing.T) {
	settings, err := DecodeSettings(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.TimeClock.AllowEarlyMinutes != 30 || settings.TimeClock.AllowLateMinutes != 60 {
		t.Fatalf("expected default clock window, got %+v", settings.TimeClock)
	}
	if settings.TimeClock.RequireShiftForClockIn {
		t.Fatal("shift requirement must default to off")
	}
	if !settings.ShiftSwap.Enabled || !settings.ShiftSwap.RequireApproval {
		t.Fatalf("expected default swap settings, got %+v", settings.ShiftSwap)
	}
}

func TestDecodeSettingsPartialOverlay(t *testing.T) {
	raw := []byte(`{"time_clock":{"requireShiftForClockIn":true,"allowEarlyMinutes":15}}`)
	settings, err := DecodeSettings(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.TimeClock.RequireShiftForClockIn {
		t.Fatal("explicit value must override default")
	}
	if settings.TimeClock.AllowEarlyMinutes != 15 {
		t.Fatalf("expected 15, got %d", settings.TimeClock.AllowEarlyMinutes)
	}
	if settings.TimeClock.AllowLateMinutes != 60 {
		t.Fatalf("absent key must keep default, got %d", settings.TimeClock.AllowLateMinutes)
	}
	if !settings.ShiftSwap.Enabled {
		t.Fatal("untouched feature block must keep defaults")
	}
}

func TestDecodeSettingsInvalidJSON(t *testing.T) {
	settings, err := DecodeSettings([]byte(`{broken`))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if settings.TimeClock.AllowEarlyMinutes != 30 {
		t.Fatal("invalid blob must fall back to defaults")
	}
}

func TestMergeSettings(t *testing.T) {
	current := DefaultSettings()
	current.TimeClock.AllowEarlyMinutes = 10

	merged, err := MergeSettings(current, json.RawMessage(`{"shift_swap":{"enabled":false}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.ShiftSwap.Enabled {
		t.Fatal("patched key must be applied")
	}
	if merged.TimeClock.AllowEarlyMinutes != 10 {
		t.Fatalf("prior value must survive merge, got %d", merged.TimeClock.AllowEarlyMinutes)
	}
}
