package lower

import (
	"fmt"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// Emitter lowers instructions of one function into its block. It is not
// safe for concurrent use; give every function its own emitter.
type Emitter struct {
	table *ValueTable
	scope *scope
	fn    *ir.Function
}

// NewEmitter creates an emitter appending to fn.
func NewEmitter(table *ValueTable, fn *ir.Function) *Emitter {
	return &Emitter{
		table: table,
		scope: newScope(table),
		fn:    fn,
	}
}

// Define binds a SPIR-V id to an IR value for later operand lookups.
func (e *Emitter) Define(id spirv.ID, v ir.Value) {
	e.scope.define(id, v)
}

// Resolve returns the value of an operand id.
func (e *Emitter) Resolve(id spirv.ID) (ir.Value, error) {
	return e.scope.resolve(id)
}

// Emit lowers one instruction, appends the result to the block and
// registers the result id. On error nothing is appended.
func (e *Emitter) Emit(inst spirv.Instruction) (*ir.Instruction, error) {
	class, err := Classify(inst.Opcode)
	if err != nil {
		return nil, newError(e.fn.Name, inst, err)
	}

	resultType, err := e.table.ResultType(inst.ResultType)
	if err != nil {
		return nil, newError(e.fn.Name, inst, err)
	}

	if len(inst.Operands) != class.Arity {
		return nil, newError(e.fn.Name, inst, fmt.Errorf("%w: got %d, want %d",
			ErrOperandCount, len(inst.Operands), class.Arity))
	}

	operands := make([]ir.Operand, 0, len(inst.Operands))
	want := ir.Components(resultType)
	for i, id := range inst.Operands {
		v, err := e.scope.resolve(id)
		if err != nil {
			return nil, newError(e.fn.Name, inst, err)
		}
		if got := ir.Components(v.Type()); got != want {
			return nil, newError(e.fn.Name, inst, fmt.Errorf("%w: operand %d is %s, result is %s",
				ErrShapeMismatch, i, v.Type(), resultType))
		}
		operands = append(operands, ir.Use(v))
	}

	var generic ir.TypeInner
	if class.Polymorphic() {
		generic = resultType
	}
	out := e.fn.Append(class.Name, generic, resultType, operands)
	e.scope.define(inst.Result, out.Result)
	return out, nil
}
