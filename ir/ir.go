package ir

import "fmt"

// Module is a lowered shader module.
type Module struct {
	// Constants holds module-scope constants referenced by instructions.
	Constants []*Constant

	// Functions holds all lowered functions in SPIR-V declaration order.
	Functions []*Function
}

// Function looks up a function by name.
func (m *Module) Function(name string) (*Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// TypeInner is an IR type. Implementations are comparable, so two types
// are equal exactly when == holds.
type TypeInner interface {
	typeInner()
	String() string
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// String returns the short spelling: i32, u32, f32, bool.
func (s ScalarType) String() string {
	if s.Kind == ScalarBool {
		return "bool"
	}
	var prefix string
	switch s.Kind {
	case ScalarSint:
		prefix = "i"
	case ScalarUint:
		prefix = "u"
	case ScalarFloat:
		prefix = "f"
	default:
		return fmt.Sprintf("scalar(%d)", s.Kind)
	}
	return fmt.Sprintf("%s%d", prefix, int(s.Width)*8)
}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// Common scalar types.
var (
	I32 = ScalarType{Kind: ScalarSint, Width: 4}
	U32 = ScalarType{Kind: ScalarUint, Width: 4}
	F32 = ScalarType{Kind: ScalarFloat, Width: 4}
)

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

func (v VectorType) String() string {
	return fmt.Sprintf("vec%d<%s>", v.Size, v.Scalar)
}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// Vec returns the vector type with n components of s.
func Vec(n VectorSize, s ScalarType) VectorType {
	return VectorType{Size: n, Scalar: s}
}

// Components returns the number of scalar components of t: 1 for scalars,
// the vector size for vectors.
func Components(t TypeInner) uint32 {
	if v, ok := t.(VectorType); ok {
		return uint32(v.Size)
	}
	return 1
}

// ElementType returns the scalar component type of t.
func ElementType(t TypeInner) (ScalarType, bool) {
	switch t := t.(type) {
	case ScalarType:
		return t, true
	case VectorType:
		return t.Scalar, true
	}
	return ScalarType{}, false
}

// TypeName renders t, or "void" for a nil type.
func TypeName(t TypeInner) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
