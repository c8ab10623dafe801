package model

import (
	"encoding/json"
	"log/slog"
	"strings"

	"govinv/internal/errors"
)

// decodeStringList decodes a JSON array of strings. Non-string elements are
// skipped. ok is false when the value is present but not an array.
func decodeStringList(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}, true
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// decodeScores decodes a label to score object. Non-numeric values are dropped.
func decodeScores(raw string) (map[string]float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]float64{}, true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return map[string]float64{}, false
	}
	out := make(map[string]float64, len(obj))
	for k, v := range obj {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out, true
}

// decodeFlags accepts either {"git_hook": true, ...} or ["git_hook", ...].
// Only true flags are kept from the object form.
func decodeFlags(raw string) (Flags, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Flags{}, true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		names := make([]string, 0, len(obj))
		for k, v := range obj {
			if b, ok := v.(bool); ok && b {
				names = append(names, k)
			}
		}
		return NewFlags(names...), true
	}
	names, ok := decodeStringList(raw)
	if !ok {
		return Flags{}, false
	}
	return NewFlags(names...), true
}

func logDegraded(logger *slog.Logger, kind, path string, fields []string) {
	if logger == nil || len(fields) == 0 {
		return
	}
	logger.Debug("nested field degraded",
		"code", string(errors.ParseDegraded),
		"kind", kind,
		"path", path,
		"fields", strings.Join(fields, ","),
	)
}
