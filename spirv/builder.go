package spirv

import (
	"fmt"
	"math"
)

// ModuleBuilder builds decoded SPIR-V modules programmatically.
//
// Type and constant declarations go to the module table; instructions
// between AddFunction and AddFunctionEnd go to the current function body.
// The first misuse is recorded and reported by Build.
type ModuleBuilder struct {
	module  *Module
	nextID  ID
	current *Function
	err     error
}

// NewModuleBuilder creates a new module builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{
		module: NewModule(),
		nextID: 1,
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() ID {
	id := b.nextID
	b.nextID++
	return id
}

func (b *ModuleBuilder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id ID, name string) {
	b.module.Names[id] = name
}

// AddTypeVoid adds OpTypeVoid.
func (b *ModuleBuilder) AddTypeVoid() ID {
	id := b.AllocID()
	b.defineType(id, Type{Kind: TypeVoid})
	return id
}

// AddTypeBool adds OpTypeBool.
func (b *ModuleBuilder) AddTypeBool() ID {
	id := b.AllocID()
	b.defineType(id, Type{Kind: TypeBool, Components: 1})
	return id
}

// AddTypeInt adds OpTypeInt.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) ID {
	id := b.AllocID()
	b.defineType(id, intType(width, signed))
	return id
}

// AddTypeFloat adds OpTypeFloat.
func (b *ModuleBuilder) AddTypeFloat(width uint32) ID {
	id := b.AllocID()
	b.defineType(id, Type{Kind: TypeFloat, Width: width, Components: 1})
	return id
}

// AddTypeVector adds OpTypeVector.
func (b *ModuleBuilder) AddTypeVector(componentType ID, count uint32) ID {
	id := b.AllocID()
	b.defineVector(id, componentType, count)
	return id
}

// AddTypeFunction adds OpTypeFunction. Only the declaration is recorded;
// signatures come from the OpFunction and OpFunctionParameter instructions.
func (b *ModuleBuilder) AddTypeFunction(returnType ID, paramTypes ...ID) ID {
	id := b.AllocID()
	b.defineType(id, Type{Kind: TypeFunction})
	return id
}

// AddConstant adds OpConstant.
func (b *ModuleBuilder) AddConstant(typeID ID, values ...uint32) ID {
	id := b.AllocID()
	b.defineConstant(id, Constant{Type: typeID, Words: values})
	return id
}

// AddConstantFloat32 adds a 32-bit float constant.
func (b *ModuleBuilder) AddConstantFloat32(typeID ID, value float32) ID {
	return b.AddConstant(typeID, math.Float32bits(value))
}

// AddConstantInt32 adds a 32-bit integer constant in two's complement.
func (b *ModuleBuilder) AddConstantInt32(typeID ID, value int32) ID {
	return b.AddConstant(typeID, uint32(value))
}

// AddConstantBool adds OpConstantTrue or OpConstantFalse.
func (b *ModuleBuilder) AddConstantBool(typeID ID, value bool) ID {
	if value {
		return b.AddConstant(typeID, 1)
	}
	return b.AddConstant(typeID, 0)
}

// AddConstantComposite adds OpConstantComposite.
func (b *ModuleBuilder) AddConstantComposite(typeID ID, constituents ...ID) ID {
	id := b.AllocID()
	b.defineConstant(id, Constant{Type: typeID, Constituents: append([]ID{}, constituents...)})
	return id
}

// AddFunction starts a function definition.
func (b *ModuleBuilder) AddFunction(returnType ID, funcType ID) ID {
	id := b.AllocID()
	b.beginFunction(id, returnType, funcType)
	return id
}

// AddFunctionParameter adds a function parameter.
func (b *ModuleBuilder) AddFunctionParameter(typeID ID) ID {
	id := b.AllocID()
	b.appendInstruction(Instruction{Opcode: OpFunctionParameter, ResultType: typeID, Result: id})
	return id
}

// AddLabel adds a label.
func (b *ModuleBuilder) AddLabel() ID {
	id := b.AllocID()
	b.appendInstruction(Instruction{Opcode: OpLabel, Result: id})
	return id
}

// AddInstruction adds an instruction with a result to the current function.
func (b *ModuleBuilder) AddInstruction(opcode OpCode, resultType ID, operands ...ID) ID {
	resultID := b.AllocID()
	b.appendInstruction(Instruction{
		Opcode:     opcode,
		ResultType: resultType,
		Result:     resultID,
		Operands:   append([]ID{}, operands...),
	})
	return resultID
}

// AddBinaryOp adds a binary operation instruction.
func (b *ModuleBuilder) AddBinaryOp(opcode OpCode, resultType ID, left ID, right ID) ID {
	return b.AddInstruction(opcode, resultType, left, right)
}

// AddUnaryOp adds a unary operation instruction.
func (b *ModuleBuilder) AddUnaryOp(opcode OpCode, resultType ID, operand ID) ID {
	return b.AddInstruction(opcode, resultType, operand)
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() {
	b.appendInstruction(Instruction{Opcode: OpReturn})
}

// AddReturnValue adds OpReturnValue.
func (b *ModuleBuilder) AddReturnValue(valueID ID) {
	b.appendInstruction(Instruction{Opcode: OpReturnValue, Operands: []ID{valueID}})
}

// AddFunctionEnd adds OpFunctionEnd.
func (b *ModuleBuilder) AddFunctionEnd() {
	if b.current == nil {
		b.fail("OpFunctionEnd outside of a function")
		return
	}
	b.module.Functions = append(b.module.Functions, *b.current)
	b.current = nil
}

// Build returns the finished module.
func (b *ModuleBuilder) Build() (*Module, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.current != nil {
		return nil, fmt.Errorf("function %s is missing OpFunctionEnd", b.current.Result)
	}
	b.module.Bound = b.nextID
	return b.module, nil
}

func intType(width uint32, signed bool) Type {
	if signed {
		return Type{Kind: TypeSignedInt, Width: width, Components: 1}
	}
	return Type{Kind: TypeUnsignedInt, Width: width, Components: 1}
}

func (b *ModuleBuilder) defined(id ID) bool {
	if _, ok := b.module.Types[id]; ok {
		return true
	}
	_, ok := b.module.Constants[id]
	return ok
}

func (b *ModuleBuilder) defineType(id ID, t Type) {
	if b.defined(id) {
		b.fail("%s is defined more than once", id)
		return
	}
	b.module.Types[id] = t
}

func (b *ModuleBuilder) defineVector(id ID, componentType ID, count uint32) {
	component, ok := b.module.Types[componentType]
	if !ok {
		b.fail("vector %s: component type %s is not declared", id, componentType)
		return
	}
	if component.IsVector() || component.Kind == TypeVoid || component.Kind == TypeFunction {
		b.fail("vector %s: component type %s is not a scalar", id, componentType)
		return
	}
	if count < 2 {
		b.fail("vector %s: component count must be at least 2, got %d", id, count)
		return
	}
	component.Components = count
	b.defineType(id, component)
}

func (b *ModuleBuilder) defineConstant(id ID, c Constant) {
	if b.defined(id) {
		b.fail("%s is defined more than once", id)
		return
	}
	if _, ok := b.module.Types[c.Type]; !ok {
		b.fail("constant %s: type %s is not declared", id, c.Type)
		return
	}
	b.module.Constants[id] = c
}

func (b *ModuleBuilder) beginFunction(id ID, returnType ID, funcType ID) {
	if b.current != nil {
		b.fail("function %s starts inside function %s", id, b.current.Result)
		return
	}
	b.current = &Function{Result: id, ResultType: returnType, FunctionType: funcType}
}

func (b *ModuleBuilder) appendInstruction(inst Instruction) {
	if b.current == nil {
		b.fail("%s outside of a function", inst.Opcode)
		return
	}
	b.current.Body = append(b.current.Body, inst)
}
