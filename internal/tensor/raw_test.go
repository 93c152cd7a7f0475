package tensor

import (
	"testing"
)

// RawTensor Tests

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsBool(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Bool, CPU)
	data := raw.AsBool()

	if len(data) != 4 {
		t.Errorf("AsBool length = %d, want 4", len(data))
	}

	data[0] = true
	if !raw.AsBool()[0] {
		t.Error("AsBool should return zero-copy slice")
	}
}

func TestRawTensorWrongDTypePanics(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on a float32 tensor should panic")
		}
	}()
	_ = raw.AsFloat64()
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromSlice([]float64{1, 2, 3}, Shape{3})
	clone := raw.Clone()
	clone.AsFloat64()[0] = 99

	if raw.AsFloat64()[0] != 1 {
		t.Error("Clone should not share memory with the original")
	}
	if !clone.Shape().Equal(raw.Shape()) {
		t.Errorf("Clone shape = %v, want %v", clone.Shape(), raw.Shape())
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{3, 0}, Float32, CPU); err == nil {
		t.Error("NewRaw with a zero dimension should fail")
	}
}

func TestStrides(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 3, 5}, Float32, CPU)
	want := []int{15, 5, 1}
	got := raw.Strides()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Strides = %v, want %v", got, want)
		}
	}
}

func TestView(t *testing.T) {
	raw, _ := Full[float32](Shape{2, 2}, -1e38)
	for i, v := range View[float32](raw) {
		if v != -1e38 {
			t.Errorf("View[%d] = %v, want -1e38", i, v)
		}
	}
}
