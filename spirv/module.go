package spirv

import (
	"fmt"
	"sort"
)

// TypeKind classifies a SPIR-V type declaration.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeSignedInt
	TypeUnsignedInt
	TypeFloat
	TypeFunction
)

// Type is a canonical SPIR-V type: a scalar, or a vector of scalars when
// Components > 1. Types are immutable once declared.
type Type struct {
	Kind       TypeKind
	Width      uint32 // in bits; 0 for void, bool and function types
	Components uint32 // 1 for scalars
}

// IsVector reports whether the type is a vector.
func (t Type) IsVector() bool {
	return t.Components > 1
}

// Scalar returns the component type of a vector, or t itself.
func (t Type) Scalar() Type {
	t.Components = 1
	return t
}

func (t Type) String() string {
	var scalar string
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeFunction:
		return "function"
	case TypeBool:
		scalar = "bool"
	case TypeSignedInt:
		scalar = fmt.Sprintf("int%d", t.Width)
	case TypeUnsignedInt:
		scalar = fmt.Sprintf("uint%d", t.Width)
	case TypeFloat:
		scalar = fmt.Sprintf("float%d", t.Width)
	default:
		scalar = fmt.Sprintf("kind(%d)", t.Kind)
	}
	if t.IsVector() {
		return fmt.Sprintf("v%d%s", t.Components, scalar)
	}
	return scalar
}

// Constant is a module-scope constant declaration.
type Constant struct {
	Type ID

	// Words holds the literal of a scalar constant, low-order word first.
	Words []uint32

	// Constituents holds the component ids of a composite constant.
	Constituents []ID
}

// IsComposite reports whether the constant was declared with
// OpConstantComposite.
func (c Constant) IsComposite() bool {
	return c.Constituents != nil
}

// Instruction is a decoded SPIR-V instruction inside a function body.
// ResultType and Result are zero for instructions without them.
type Instruction struct {
	Opcode     OpCode
	ResultType ID
	Result     ID
	Operands   []ID
}

func (i Instruction) String() string {
	s := ""
	if i.Result != 0 {
		s = i.Result.String() + " = "
	}
	s += i.Opcode.String()
	if i.ResultType != 0 {
		s += " " + i.ResultType.String()
	}
	for _, op := range i.Operands {
		s += " " + op.String()
	}
	return s
}

// Function is a function definition. Body is the instruction stream between
// OpFunction and OpFunctionEnd in program order, including
// OpFunctionParameter, OpLabel and the block terminator.
type Function struct {
	Result       ID
	ResultType   ID
	FunctionType ID
	Body         []Instruction
}

// Module is the type/constant table and function list of a decoded
// SPIR-V module. It is fully populated before lowering starts and is not
// modified afterwards.
type Module struct {
	// Bound is one greater than the largest id in the module.
	Bound     ID
	Types     map[ID]Type
	Constants map[ID]Constant
	Names     map[ID]string
	Functions []Function
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{
		Bound:     1,
		Types:     make(map[ID]Type),
		Constants: make(map[ID]Constant),
		Names:     make(map[ID]string),
	}
}

// Name returns the debug name of id, or its numeric form.
func (m *Module) Name(id ID) string {
	if name, ok := m.Names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("%d", id)
}

// ConstantIDs returns all constant ids in ascending order.
func (m *Module) ConstantIDs() []ID {
	ids := make([]ID, 0, len(m.Constants))
	for id := range m.Constants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
