package org

import "encoding/json"

// Feature settings are stored as one JSONB blob per organization. Defaults
// are applied in exactly one place: DecodeSettings.

type TimeClockSettings struct {
	RequireShiftForClockIn bool `json:"requireShiftForClockIn"`
	AllowEarlyMinutes      int  `json:"allowEarlyMinutes"`
	AllowLateMinutes       int  `json:"allowLateMinutes"`
}

type ShiftSwapSettings struct {
	Enabled            bool `json:"enabled"`
	RequireApproval    bool `json:"requireApproval"`
	AllowCrossLocation bool `json:"allowCrossLocation"`
}

type Settings struct {
	TimeClock TimeClockSettings `json:"time_clock"`
	ShiftSwap ShiftSwapSettings `json:"shift_swap"`
}

func DefaultSettings() Settings {
	return Settings{
		TimeClock: TimeClockSettings{
			RequireShiftForClockIn: false,
			AllowEarlyMinutes:      30,
			AllowLateMinutes:       60,
		},
		ShiftSwap: ShiftSwapSettings{
			Enabled:            true,
			RequireApproval:    true,
			AllowCrossLocation: false,
		},
	}
}

// DecodeSettings overlays the stored blob on the defaults, so absent keys
// keep their default values.
func DecodeSettings(raw []byte) (Settings, error) {
	settings := DefaultSettings()
	if len(raw) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

// MergeSettings overlays a partial update on the current settings. Keys the
// patch omits are untouched.
func MergeSettings(current Settings, patch json.RawMessage) (Settings, error) {
	merged := current
	if len(patch) == 0 {
		return merged, nil
	}
	if err := json.Unmarshal(patch, &merged); err != nil {
		return current, err
	}
	return merged, nil
}
