package ir

// Function is a lowered function with a single block.
type Function struct {
	Name       string
	Params     []*FunctionParam
	ReturnType TypeInner // nil for void
	Block      Block

	nextID ValueID
}

// Block is a straight-line sequence of instructions with an optional
// terminator.
type Block struct {
	Instructions []*Instruction
	Terminator   *Return
}

// Return terminates a block. Value is nil for a void return.
type Return struct {
	Value *Operand
}

// Instruction is one SSA instruction.
type Instruction struct {
	// Op is the operation name, e.g. "spirv.bitwise_and" or "bitcast".
	Op string

	// Generic is the explicit type parameter of signedness-polymorphic
	// operations and nil for core operations.
	Generic TypeInner

	Operands []Operand
	Result   *InstructionResult
}

// NewFunction creates an empty function.
func NewFunction(name string, returnType TypeInner) *Function {
	return &Function{
		Name:       name,
		ReturnType: returnType,
		nextID:     1,
	}
}

// AllocID allocates a fresh SSA id.
func (f *Function) AllocID() ValueID {
	id := f.nextID
	f.nextID++
	return id
}

// AddParam appends a parameter of the given type.
func (f *Function) AddParam(typ TypeInner) *FunctionParam {
	p := &FunctionParam{id: f.AllocID(), typ: typ}
	f.Params = append(f.Params, p)
	return p
}

// Append builds an instruction producing a fresh value of resultType and
// appends it to the function's block.
func (f *Function) Append(op string, generic TypeInner, resultType TypeInner, operands []Operand) *Instruction {
	inst := &Instruction{
		Op:       op,
		Generic:  generic,
		Operands: operands,
	}
	inst.Result = &InstructionResult{id: f.AllocID(), typ: resultType, inst: inst}
	f.Block.Instructions = append(f.Block.Instructions, inst)
	return inst
}

// SetReturn sets the block terminator. A nil value returns void.
func (f *Function) SetReturn(value Value) {
	if value == nil {
		f.Block.Terminator = &Return{}
		return
	}
	op := Use(value)
	f.Block.Terminator = &Return{Value: &op}
}
