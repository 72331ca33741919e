package ir

import (
	"fmt"
	"strings"
)

// PolymorphicNamespace prefixes operations that are polymorphic over operand
// signedness and therefore carry an explicit generic type parameter.
const PolymorphicNamespace = "spirv."

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function    string
	Instruction int // index in the block, -1 when not applicable
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Instruction >= 0 {
			return fmt.Sprintf("in function %s, instruction %d: %s", e.Function, e.Instruction, e.Message)
		}
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	return e.Message
}

// Validator validates IR modules.
type Validator struct {
	module    *Module
	errors    []ValidationError
	constants map[*Constant]bool
	context   validationContext
}

// validationContext holds current validation context.
type validationContext struct {
	function *Function
	index    int
	defined  map[Value]bool
	ids      map[ValueID]bool
}

// Validate checks the IR module for correctness.
// Returns validation errors if any, or nil if module is valid.
//
// Checked invariants:
//   - every value is produced once and used only after its definition
//   - polymorphic operations carry a generic parameter equal to their
//     result type, core operations carry none
//   - operands of polymorphic operations have the result's component count
//   - return values match the function's return type
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &Validator{
		module:    module,
		errors:    make([]ValidationError, 0),
		constants: make(map[*Constant]bool, len(module.Constants)),
	}

	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.validateConstants()

	names := make(map[string]bool, len(v.module.Functions))
	for _, f := range v.module.Functions {
		v.context = validationContext{function: f, index: -1}
		if names[f.Name] {
			v.addError(fmt.Sprintf("duplicate function name %q", f.Name))
		}
		names[f.Name] = true
		v.validateFunction(f)
	}
}

func (v *Validator) validateConstants() {
	for i, c := range v.module.Constants {
		v.constants[c] = true
		if msg := checkType(c.Type()); msg != "" {
			v.addError(fmt.Sprintf("constant %d: %s", i, msg))
			continue
		}
		if got, want := len(c.Bits()), int(Components(c.Type())); got != want {
			v.addError(fmt.Sprintf("constant %d: %s has %d components, want %d", i, c.Type(), got, want))
		}
	}
}

func (v *Validator) validateFunction(f *Function) {
	v.context = validationContext{
		function: f,
		index:    -1,
		defined:  make(map[Value]bool),
		ids:      make(map[ValueID]bool),
	}

	for _, p := range f.Params {
		if msg := checkType(p.Type()); msg != "" {
			v.addError(fmt.Sprintf("parameter %s: %s", p.ID(), msg))
		}
		v.define(p, p.ID())
	}

	for i, inst := range f.Block.Instructions {
		v.context.index = i
		v.validateInstruction(inst)
	}
	v.context.index = -1

	v.validateReturn(f)
}

func (v *Validator) validateInstruction(inst *Instruction) {
	for j, op := range inst.Operands {
		v.validateUse(op, fmt.Sprintf("operand %d", j))
	}

	if inst.Result == nil {
		v.addError(fmt.Sprintf("%s has no result", inst.Op))
		return
	}
	if inst.Result.Instruction() != inst {
		v.addError(fmt.Sprintf("result %s belongs to another instruction", inst.Result.ID()))
	}
	if msg := checkType(inst.Result.Type()); msg != "" {
		v.addError(fmt.Sprintf("result %s: %s", inst.Result.ID(), msg))
	}

	if strings.HasPrefix(inst.Op, PolymorphicNamespace) {
		v.validatePolymorphic(inst)
	} else if inst.Generic != nil {
		v.addError(fmt.Sprintf("core operation %s must not have a generic parameter", inst.Op))
	}

	v.define(inst.Result, inst.Result.ID())
}

func (v *Validator) validatePolymorphic(inst *Instruction) {
	if inst.Generic == nil {
		v.addError(fmt.Sprintf("%s requires a generic parameter", inst.Op))
		return
	}
	if inst.Generic != inst.Result.Type() {
		v.addError(fmt.Sprintf("%s: generic parameter %s differs from result type %s",
			inst.Op, inst.Generic, inst.Result.Type()))
	}
	want := Components(inst.Result.Type())
	for j, op := range inst.Operands {
		if got := Components(op.Type()); got != want {
			v.addError(fmt.Sprintf("%s: operand %d has %d components, result has %d", inst.Op, j, got, want))
		}
	}
}

func (v *Validator) validateUse(op Operand, what string) {
	switch val := op.Value().(type) {
	case nil:
		v.addError(what + " is nil")
	case *Constant:
		if !v.constants[val] {
			v.addError(what + " references a constant outside the module")
		}
	default:
		if !v.context.defined[val] {
			v.addError(what + " is used before its definition")
		}
	}
}

func (v *Validator) validateReturn(f *Function) {
	ret := f.Block.Terminator
	if ret == nil {
		v.addError("block has no terminator")
		return
	}
	if ret.Value == nil {
		if f.ReturnType != nil {
			v.addError(fmt.Sprintf("missing return value of type %s", f.ReturnType))
		}
		return
	}
	v.validateUse(*ret.Value, "return value")
	if f.ReturnType == nil {
		v.addError("void function returns a value")
	} else if ret.Value.Type() != f.ReturnType {
		v.addError(fmt.Sprintf("return value has type %s, want %s", ret.Value.Type(), f.ReturnType))
	}
}

func (v *Validator) define(val Value, id ValueID) {
	if v.context.ids[id] {
		v.addError(fmt.Sprintf("value %s is defined more than once", id))
	}
	v.context.ids[id] = true
	v.context.defined[val] = true
}

// checkType returns a description of what is wrong with t, or "".
func checkType(t TypeInner) string {
	switch t := t.(type) {
	case nil:
		return "missing type"
	case ScalarType:
		if t.Width != 1 && t.Width != 2 && t.Width != 4 && t.Width != 8 {
			return fmt.Sprintf("scalar width must be 1, 2, 4, or 8 bytes, got %d", t.Width)
		}
	case VectorType:
		if t.Size != Vec2 && t.Size != Vec3 && t.Size != Vec4 {
			return fmt.Sprintf("vector size must be 2, 3, or 4, got %d", t.Size)
		}
		return checkType(t.Scalar)
	default:
		return fmt.Sprintf("unknown type %T", t)
	}
	return ""
}

// addError adds a validation error.
func (v *Validator) addError(msg string) {
	err := ValidationError{Message: msg, Instruction: -1}
	if v.context.function != nil {
		err.Function = v.context.function.Name
		err.Instruction = v.context.index
	}
	v.errors = append(v.errors, err)
}
