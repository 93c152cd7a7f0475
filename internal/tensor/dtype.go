// Package tensor provides the dense tensor representation shared by the CTC core.
package tensor

// DType is a constraint for element types a RawTensor can hold.
type DType interface {
	~float32 | ~float64 | ~int64 | ~bool
}

// Float is a constraint for the floating-point types the engine computes in.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int64
	Bool
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64, Int64:
		return 8
	case Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the data type is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the runtime DataType for the type parameter T.
func DataTypeOf[T DType]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int64:
		return Int64
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}
