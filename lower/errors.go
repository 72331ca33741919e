package lower

import (
	"errors"
	"fmt"

	"github.com/gogpu/spvfront/spirv"
)

// Lowering failures. Match them with errors.Is; every error returned by
// this package wraps exactly one of them.
var (
	// ErrUnsupportedType reports a type outside 32-bit int/uint/float
	// scalars and their 2-, 3- and 4-component vectors.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnresolvedOperand reports an operand id with no prior definition.
	ErrUnresolvedOperand = errors.New("unresolved operand")

	// ErrUnknownOpcode reports an opcode with no classifier entry.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrShapeMismatch reports an operand whose component count differs
	// from the declared result's.
	ErrShapeMismatch = errors.New("operand shape mismatch")

	// ErrOperandCount reports an instruction with the wrong number of
	// operands for its opcode.
	ErrOperandCount = errors.New("wrong operand count")

	// ErrControlFlow reports branches, merges or a second block.
	ErrControlFlow = errors.New("structured control flow is not supported")
)

// Error carries the context of a failed instruction: the enclosing
// function, the opcode and the SPIR-V result id.
type Error struct {
	Function string
	Op       spirv.OpCode
	Result   spirv.ID
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	where := e.Op.String()
	if e.Result != 0 {
		where += " " + e.Result.String()
	}
	if e.Function != "" {
		return fmt.Sprintf("function %s: %s: %v", e.Function, where, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(function string, inst spirv.Instruction, err error) *Error {
	return &Error{Function: function, Op: inst.Opcode, Result: inst.Result, Err: err}
}
