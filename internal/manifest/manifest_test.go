package manifest

import (
	"testing"

	"github.com/samcharles93/loom/internal/constants"
	"github.com/samcharles93/loom/internal/dtype"
)

const sample = `{
  "device": "cuda:0",
  "inputs": ["x"],
  "outputs": ["y"],
  "in_spec": "((x))",
  "out_spec": "(y)",
  "constants": [
    {"name": "w0", "shape": [2, 2], "stride": [2, 1], "dtype": "f32", "data_size": 16, "kind": "parameter"},
    {"name": "folded", "shape": [4], "dtype": "bf16", "data_size": 8, "from_folded": true, "kind": "folded_constant"}
  ]
}`

func TestParseAndRegistry(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Device != "cuda:0" || len(m.Inputs) != 1 || len(m.Outputs) != 1 {
		t.Fatalf("unexpected manifest header: %+v", m)
	}
	if m.TotalDataSize() != 24 {
		t.Fatalf("TotalDataSize = %d, want 24", m.TotalDataSize())
	}

	reg, err := m.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("registry length %d, want 2", reg.Len())
	}
	d0, _ := reg.At(0)
	if d0.Name != "w0" || d0.DType != dtype.F32 || d0.Kind != constants.Parameter {
		t.Fatalf("descriptor 0 = %+v", d0)
	}
	d1, _ := reg.At(1)
	if !d1.FromFolded || d1.DType != dtype.BF16 || d1.Kind != constants.FoldedConstant {
		t.Fatalf("descriptor 1 = %+v", d1)
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
	}{
		{"bad json", `{`},
		{"unnamed constant", `{"constants": [{"dtype": "f32", "data_size": 4}]}`},
		{"bad dtype", `{"constants": [{"name": "w", "dtype": "float128", "data_size": 4}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tc.doc)); err == nil {
				t.Fatal("want parse error")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.Constants[1].Name != "folded" || !back.Constants[1].FromFolded {
		t.Fatalf("round trip lost constant data: %+v", back.Constants[1])
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	m := &Manifest{Constants: []Constant{
		{Name: "w", DType: "f32", DataSize: 4},
		{Name: "w", DType: "f32", DataSize: 4},
	}}
	if _, err := m.Registry(); err == nil {
		t.Fatal("duplicate names must be rejected")
	}
}
