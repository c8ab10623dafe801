package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"govinv/internal/errors"
)

func TestBuilder_Basic(t *testing.T) {
	resp := New().
		Tool("search_inventory").
		Data([]string{"a", "b"}).
		Query(map[string]any{"limit": 50}).
		Query(map[string]any{"riskLevel": "high"}).
		Build()

	if resp.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %q", resp.SchemaVersion)
	}
	if resp.Meta.Tool != "search_inventory" {
		t.Errorf("Tool = %q", resp.Meta.Tool)
	}
	if resp.Meta.Query["limit"] != 50 || resp.Meta.Query["riskLevel"] != "high" {
		t.Errorf("Query = %v", resp.Meta.Query)
	}
	if resp.Failed() {
		t.Error("Failed() = true, want false")
	}
}

func TestBuilder_Truncation(t *testing.T) {
	resp := New().WithTruncation(false, 10, 10, "").Build()
	if resp.Meta.Truncation != nil {
		t.Error("untruncated response should have no truncation meta")
	}

	resp = New().WithTruncation(true, 100, 250, "max-results").Build()
	tr := resp.Meta.Truncation
	if tr == nil || !tr.IsTruncated || tr.Shown != 100 || tr.Total != 250 {
		t.Errorf("Truncation = %+v", tr)
	}
}

func TestBuilder_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{"gov error", errors.NewInvalidEnum("direction", "sideways", []string{"incoming", "outgoing", "both"}), errors.InvalidArgument},
		{"wrapped gov error", fmt.Errorf("op: %w", errors.NewStoreUnavailable(nil)), errors.StoreUnavailable},
		{"plain error", fmt.Errorf("boom"), errors.InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := New().Query(map[string]any{"path": "/x"}).Error(tt.err).Build()
			if !resp.Failed() {
				t.Fatal("Failed() = false, want true")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", resp.Error.Code, tt.wantCode)
			}
			if resp.Meta.Query["path"] != "/x" {
				t.Error("failed responses must still echo the applied query")
			}
		})
	}
}

func TestResponse_JSONShape(t *testing.T) {
	resp := New().Data(map[string]int{"count": 0}).Build()
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"schemaVersion":"1.0"`, `"query":{}`, `"count":0`} {
		if !strings.Contains(s, want) {
			t.Errorf("json %s missing %s", s, want)
		}
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("successful response should omit error: %s", s)
	}
}

func TestOperational(t *testing.T) {
	resp := Operational("ok")
	if resp.Data != "ok" || resp.Meta == nil {
		t.Errorf("Operational() = %+v", resp)
	}
}
