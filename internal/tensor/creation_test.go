package tensor

import (
	"testing"
)

func TestFromSliceLengthMismatch(t *testing.T) {
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("FromSlice should reject a slice that does not fill the shape")
	}
}

func TestFromRows(t *testing.T) {
	raw, err := FromRows([][]int64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if !raw.Shape().Equal(Shape{3, 2}) {
		t.Errorf("shape = %v, want [3 2]", raw.Shape())
	}
	if raw.AsInt64()[5] != 6 {
		t.Errorf("last element = %d, want 6", raw.AsInt64()[5])
	}

	if _, err := FromRows([][]int64{{1, 2}, {3}}); err == nil {
		t.Error("FromRows should reject ragged rows")
	}
}

func TestCastRoundTrip(t *testing.T) {
	raw, _ := FromSlice([]float64{0.5, -1.25, 3}, Shape{3})
	f32 := Cast(raw, Float32)
	if f32.DType() != Float32 {
		t.Fatalf("Cast dtype = %s, want float32", f32.DType())
	}
	back := Float64s(f32)
	for i, want := range raw.AsFloat64() {
		if back[i] != want {
			t.Errorf("element %d = %v, want %v", i, back[i], want)
		}
	}
}

func TestDataTypeOf(t *testing.T) {
	tests := []struct {
		got  DataType
		want DataType
	}{
		{DataTypeOf[float32](), Float32},
		{DataTypeOf[float64](), Float64},
		{DataTypeOf[int64](), Int64},
		{DataTypeOf[bool](), Bool},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("DataTypeOf = %s, want %s", tt.got, tt.want)
		}
	}
}
