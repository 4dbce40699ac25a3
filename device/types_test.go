package device

import (
	"errors"
	"testing"
)

func TestStageKindString(t *testing.T) {
	tests := []struct {
		kind StageKind
		want string
	}{
		{StageVertex, "vertex"},
		{StageFragment, "fragment"},
		{StageGeometry, "geometry"},
		{StageTessControl, "tess-control"},
		{StageTessEval, "tess-eval"},
		{StageCompute, "compute"},
		{StageKind(0), "StageKind(0)"},
		{StageKind(200), "StageKind(200)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("StageKind(%d).String() = %q, want %q", uint8(tt.kind), got, tt.want)
		}
	}
}

func TestParseStageKindRoundTrip(t *testing.T) {
	for k := StageVertex; k <= StageCompute; k++ {
		if !k.Valid() {
			t.Errorf("%v should be valid", k)
		}
		got, err := ParseStageKind(k.String())
		if err != nil {
			t.Fatalf("ParseStageKind(%q) error = %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseStageKind(%q) = %v, want %v", k.String(), got, k)
		}
	}

	if got, err := ParseStageKind("  Fragment "); err != nil || got != StageFragment {
		t.Errorf("ParseStageKind is not case and space insensitive: %v, %v", got, err)
	}
	if _, err := ParseStageKind("pixel"); err == nil {
		t.Error("ParseStageKind(pixel) should fail")
	}
	if StageKind(0).Valid() {
		t.Error("zero StageKind should be invalid")
	}
}

func TestDrawCallInstanceCount(t *testing.T) {
	tests := []struct {
		instances int
		want      int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{8, 8},
	}
	for _, tt := range tests {
		if got := (DrawCall{Instances: tt.instances}).InstanceCount(); got != tt.want {
			t.Errorf("InstanceCount(%d) = %d, want %d", tt.instances, got, tt.want)
		}
	}
}

func TestDiagnostic(t *testing.T) {
	var err error = Diagnosticf("0:%d: error: %s\n\n", 3, "undeclared identifier")
	if got := err.Error(); got != "0:3: error: undeclared identifier" {
		t.Errorf("Error() = %q", got)
	}

	var d *Diagnostic
	if !errors.As(err, &d) {
		t.Fatal("errors.As should find *Diagnostic")
	}
	if d.Log != "0:3: error: undeclared identifier\n\n" {
		t.Errorf("Log should be kept verbatim, got %q", d.Log)
	}
}
