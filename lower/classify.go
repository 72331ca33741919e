package lower

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// Family says how an opcode is represented in the IR.
type Family uint8

const (
	// FamilyCore opcodes lower to a plain core operation whose natural
	// result type is the decoded SPIR-V result type.
	FamilyCore Family = iota

	// FamilyPolymorphic opcodes operate on bit patterns regardless of
	// operand signedness. They lower to a spirv.* operation carrying the
	// decoded result type as an explicit generic parameter.
	FamilyPolymorphic
)

func (f Family) String() string {
	switch f {
	case FamilyCore:
		return "core"
	case FamilyPolymorphic:
		return "polymorphic"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Class is the IR representation chosen for an opcode.
type Class struct {
	Family Family
	Name   string // IR operation name
	Arity  int    // number of value operands
}

// Polymorphic reports whether the class carries a generic parameter.
func (c Class) Polymorphic() bool {
	return c.Family == FamilyPolymorphic
}

var classTable = map[spirv.OpCode]Class{
	spirv.OpBitwiseAnd:           polymorphic(spirv.OpBitwiseAnd, 2),
	spirv.OpBitwiseOr:            polymorphic(spirv.OpBitwiseOr, 2),
	spirv.OpBitwiseXor:           polymorphic(spirv.OpBitwiseXor, 2),
	spirv.OpShiftLeftLogical:     polymorphic(spirv.OpShiftLeftLogical, 2),
	spirv.OpShiftRightLogical:    polymorphic(spirv.OpShiftRightLogical, 2),
	spirv.OpShiftRightArithmetic: polymorphic(spirv.OpShiftRightArithmetic, 2),
	spirv.OpNot:                  polymorphic(spirv.OpNot, 1),
	spirv.OpSNegate:              polymorphic(spirv.OpSNegate, 1),
	spirv.OpIAdd:                 polymorphic(spirv.OpIAdd, 2),
	spirv.OpISub:                 polymorphic(spirv.OpISub, 2),
	spirv.OpIMul:                 polymorphic(spirv.OpIMul, 2),

	spirv.OpBitcast:       {Family: FamilyCore, Name: "bitcast", Arity: 1},
	spirv.OpQuantizeToF16: {Family: FamilyCore, Name: "quantizeToF16", Arity: 1},
	spirv.OpFNegate:       {Family: FamilyCore, Name: "negation", Arity: 1},
}

func polymorphic(op spirv.OpCode, arity int) Class {
	name := strings.TrimPrefix(op.String(), "Op")
	return Class{
		Family: FamilyPolymorphic,
		Name:   ir.PolymorphicNamespace + snakeCase(name),
		Arity:  arity,
	}
}

// Classify returns the IR representation of an opcode. It depends on the
// opcode alone, never on operand types.
func Classify(op spirv.OpCode) (Class, error) {
	class, ok := classTable[op]
	if !ok {
		return Class{}, fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
	}
	return class, nil
}

// ClassifiedOpcodes returns every opcode the classifier knows, in
// ascending order.
func ClassifiedOpcodes() []spirv.OpCode {
	ops := make([]spirv.OpCode, 0, len(classTable))
	for op := range classTable {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// snakeCase converts a CamelCase mnemonic to snake_case. An upper-case run
// keeps its letters together except for the last one when it starts a new
// word: "SNegate" -> "s_negate", "ShiftLeftLogical" -> "shift_left_logical".
func snakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
