package lower

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// DecodeType maps a SPIR-V type to its canonical IR type:
//
//	32-bit signed int   -> i32
//	32-bit unsigned int -> u32
//	32-bit float        -> f32
//	2/3/4-wide vectors of the above -> vecN<T>
//
// Anything else fails with ErrUnsupportedType.
func DecodeType(t spirv.Type) (ir.TypeInner, error) {
	var kind ir.ScalarKind
	switch t.Kind {
	case spirv.TypeSignedInt:
		kind = ir.ScalarSint
	case spirv.TypeUnsignedInt:
		kind = ir.ScalarUint
	case spirv.TypeFloat:
		kind = ir.ScalarFloat
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if t.Width != 32 {
		return nil, fmt.Errorf("%w: %s: only 32-bit scalars are supported", ErrUnsupportedType, t)
	}
	width, err := safecast.Conv[uint8](t.Width / 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedType, t, err)
	}
	scalar := ir.ScalarType{Kind: kind, Width: width}

	switch t.Components {
	case 1:
		return scalar, nil
	case 2, 3, 4:
		size, err := safecast.Conv[uint8](t.Components)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedType, t, err)
		}
		return ir.VectorType{Size: ir.VectorSize(size), Scalar: scalar}, nil
	}
	return nil, fmt.Errorf("%w: %s: %d components", ErrUnsupportedType, t, t.Components)
}

// EncodeType is the inverse of DecodeType.
func EncodeType(t ir.TypeInner) (spirv.Type, error) {
	elem, ok := ir.ElementType(t)
	if !ok {
		return spirv.Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ir.TypeName(t))
	}
	var kind spirv.TypeKind
	switch elem.Kind {
	case ir.ScalarSint:
		kind = spirv.TypeSignedInt
	case ir.ScalarUint:
		kind = spirv.TypeUnsignedInt
	case ir.ScalarFloat:
		kind = spirv.TypeFloat
	default:
		return spirv.Type{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return spirv.Type{
		Kind:       kind,
		Width:      uint32(elem.Width) * 8,
		Components: ir.Components(t),
	}, nil
}
