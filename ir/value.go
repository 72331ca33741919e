package ir

import "strconv"

// ValueID identifies an SSA value within a function.
type ValueID uint32

func (id ValueID) String() string {
	return "%" + strconv.FormatUint(uint64(id), 10)
}

// Value is anything an instruction can consume: a module constant, a
// function parameter or the result of an earlier instruction. A value's
// type is fixed when the value is created.
type Value interface {
	Type() TypeInner
	isValue()
}

// Constant is a module-scope constant. Bits holds one 32-bit pattern per
// component.
type Constant struct {
	typ  TypeInner
	bits []uint32
}

// NewConstant creates a constant of the given type.
func NewConstant(typ TypeInner, bits []uint32) *Constant {
	return &Constant{typ: typ, bits: append([]uint32(nil), bits...)}
}

func (c *Constant) Type() TypeInner { return c.typ }
func (*Constant) isValue()          {}

// Bits returns the component bit patterns. The slice must not be modified.
func (c *Constant) Bits() []uint32 { return c.bits }

// FunctionParam is a function parameter.
type FunctionParam struct {
	id  ValueID
	typ TypeInner
}

func (p *FunctionParam) Type() TypeInner { return p.typ }
func (*FunctionParam) isValue()          {}

// ID returns the parameter's SSA id.
func (p *FunctionParam) ID() ValueID { return p.id }

// InstructionResult is the value produced by exactly one instruction.
type InstructionResult struct {
	id   ValueID
	typ  TypeInner
	inst *Instruction
}

func (r *InstructionResult) Type() TypeInner { return r.typ }
func (*InstructionResult) isValue()          {}

// ID returns the result's SSA id.
func (r *InstructionResult) ID() ValueID { return r.id }

// Instruction returns the producing instruction.
func (r *InstructionResult) Instruction() *Instruction { return r.inst }

// Operand is a use of a value by an instruction. It keeps the value's own
// type and offers no way to change it: lowering never coerces operands.
type Operand struct {
	value Value
}

// Use wraps v as an operand.
func Use(v Value) Operand {
	return Operand{value: v}
}

// Value returns the used value.
func (o Operand) Value() Value { return o.value }

// Type returns the type the value was defined with.
func (o Operand) Type() TypeInner { return o.value.Type() }
