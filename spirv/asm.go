package spirv

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// AsmError is an assembly error with a source line.
type AsmError struct {
	Line    int
	Message string
}

// Error implements the error interface.
func (e *AsmError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseAssembly reads the textual SPIR-V assembly subset used by the front
// end: scalar and vector types, scalar and composite constants, debug
// names and single-block functions. Module header instructions such as
// OpCapability and OpDecorate are accepted and ignored.
//
// Ids may be named (%int) or numeric (%12); both are renumbered in order of
// first appearance.
func ParseAssembly(source string) (*Module, error) {
	p := &asmParser{
		builder: NewModuleBuilder(),
		ids:     make(map[string]ID, 32),
	}
	for i, line := range strings.Split(source, "\n") {
		p.line = i + 1
		if err := p.parseLine(line); err != nil {
			return nil, err
		}
		if p.builder.err != nil {
			return nil, p.errorf("%v", p.builder.err)
		}
	}
	p.line = 0
	module, err := p.builder.Build()
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return module, nil
}

type asmParser struct {
	builder *ModuleBuilder
	ids     map[string]ID
	line    int
}

func (p *asmParser) errorf(format string, args ...any) *AsmError {
	return &AsmError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

// ref returns the id for a %name token, allocating one on first use.
func (p *asmParser) ref(tok string) (ID, error) {
	if len(tok) < 2 || tok[0] != '%' {
		return 0, p.errorf("expected an id, got %q", tok)
	}
	if id, ok := p.ids[tok]; ok {
		return id, nil
	}
	id := p.builder.AllocID()
	p.ids[tok] = id
	if name := tok[1:]; !isNumeric(name) {
		if _, named := p.builder.module.Names[id]; !named {
			p.builder.AddName(id, name)
		}
	}
	return id, nil
}

func (p *asmParser) refs(toks []string) ([]ID, error) {
	ids := make([]ID, 0, len(toks))
	for _, tok := range toks {
		id, err := p.ref(tok)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *asmParser) parseLine(line string) error {
	toks, err := tokenize(line)
	if err != nil {
		return p.errorf("%v", err)
	}
	if len(toks) == 0 {
		return nil
	}

	var result ID
	if len(toks) >= 2 && toks[1] == "=" {
		if len(toks) < 3 {
			return p.errorf("missing opcode after %q", toks[0])
		}
		if result, err = p.ref(toks[0]); err != nil {
			return err
		}
		toks = toks[2:]
	}

	opcode, ok := LookupOpCode(toks[0])
	if !ok {
		return p.errorf("unknown opcode %q", toks[0])
	}
	args := toks[1:]
	if needsResult(opcode) && result == 0 {
		return p.errorf("%s requires a result id", opcode)
	}
	return p.parseInstruction(opcode, result, args)
}

//nolint:gocyclo,cyclop // one case per supported opcode
func (p *asmParser) parseInstruction(opcode OpCode, result ID, args []string) error {
	b := p.builder
	switch opcode {
	case OpCapability, OpExtension, OpExtInstImport, OpMemoryModel, OpEntryPoint,
		OpExecutionMode, OpSource, OpSourceExtension, OpDecorate, OpMemberDecorate,
		OpMemberName, OpString, OpLine:
		return nil

	case OpName:
		if len(args) != 2 {
			return p.errorf("OpName expects an id and a string")
		}
		id, err := p.ref(args[0])
		if err != nil {
			return err
		}
		name, err := strconv.Unquote(args[1])
		if err != nil {
			return p.errorf("OpName: invalid string %s", args[1])
		}
		b.AddName(id, name)
		return nil

	case OpTypeVoid:
		b.defineType(result, Type{Kind: TypeVoid})
		return nil

	case OpTypeBool:
		b.defineType(result, Type{Kind: TypeBool, Components: 1})
		return nil

	case OpTypeInt:
		lits, err := p.literals(args, 2)
		if err != nil {
			return err
		}
		b.defineType(result, intType(lits[0], lits[1] != 0))
		return nil

	case OpTypeFloat:
		lits, err := p.literals(args, 1)
		if err != nil {
			return err
		}
		b.defineType(result, Type{Kind: TypeFloat, Width: lits[0], Components: 1})
		return nil

	case OpTypeVector:
		if len(args) != 2 {
			return p.errorf("OpTypeVector expects a component type and a count")
		}
		component, err := p.ref(args[0])
		if err != nil {
			return err
		}
		count, err := p.literals(args[1:], 1)
		if err != nil {
			return err
		}
		b.defineVector(result, component, count[0])
		return nil

	case OpTypeFunction:
		if _, err := p.refs(args); err != nil {
			return err
		}
		b.defineType(result, Type{Kind: TypeFunction})
		return nil

	case OpConstantTrue, OpConstantFalse:
		if len(args) != 1 {
			return p.errorf("%s expects a type", opcode)
		}
		typ, err := p.ref(args[0])
		if err != nil {
			return err
		}
		var word uint32
		if opcode == OpConstantTrue {
			word = 1
		}
		b.defineConstant(result, Constant{Type: typ, Words: []uint32{word}})
		return nil

	case OpConstant:
		if len(args) != 2 {
			return p.errorf("OpConstant expects a type and a literal")
		}
		typ, err := p.ref(args[0])
		if err != nil {
			return err
		}
		t, ok := b.module.Types[typ]
		if !ok {
			return p.errorf("OpConstant: type %s is not declared", args[0])
		}
		words, err := parseLiteral(t, args[1])
		if err != nil {
			return p.errorf("OpConstant %s: %v", args[1], err)
		}
		b.defineConstant(result, Constant{Type: typ, Words: words})
		return nil

	case OpConstantComposite:
		if len(args) < 1 {
			return p.errorf("OpConstantComposite expects a type")
		}
		ids, err := p.refs(args)
		if err != nil {
			return err
		}
		b.defineConstant(result, Constant{Type: ids[0], Constituents: ids[1:]})
		return nil

	case OpFunction:
		if len(args) != 3 {
			return p.errorf("OpFunction expects a return type, a control mask and a function type")
		}
		ret, err := p.ref(args[0])
		if err != nil {
			return err
		}
		fnType, err := p.ref(args[2])
		if err != nil {
			return err
		}
		b.beginFunction(result, ret, fnType)
		return nil

	case OpFunctionEnd:
		b.AddFunctionEnd()
		return nil
	}

	return p.parseBodyInstruction(opcode, result, args)
}

// parseBodyInstruction handles any instruction inside a function body whose
// operands are all ids.
func (p *asmParser) parseBodyInstruction(opcode OpCode, result ID, args []string) error {
	if p.builder.current == nil {
		return p.errorf("%s is not supported at module scope", opcode)
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "%") {
			return p.errorf("%s: only id operands are supported, got %q", opcode, arg)
		}
	}
	ids, err := p.refs(args)
	if err != nil {
		return err
	}
	inst := Instruction{Opcode: opcode, Result: result}
	if result != 0 && opcode != OpLabel {
		if len(ids) == 0 {
			return p.errorf("%s requires a result type", opcode)
		}
		inst.ResultType = ids[0]
		ids = ids[1:]
	}
	if len(ids) > 0 {
		inst.Operands = ids
	}
	p.builder.appendInstruction(inst)
	return nil
}

func (p *asmParser) literals(args []string, n int) ([]uint32, error) {
	if len(args) != n {
		return nil, p.errorf("expected %d literal operands, got %d", n, len(args))
	}
	out := make([]uint32, n)
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return nil, p.errorf("invalid literal %q", arg)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func needsResult(op OpCode) bool {
	switch op {
	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector, OpTypeFunction,
		OpConstant, OpConstantTrue, OpConstantFalse, OpConstantComposite,
		OpFunction, OpFunctionParameter, OpLabel, OpExtInstImport:
		return true
	}
	return false
}

// parseLiteral encodes a numeric literal for a scalar type of the given
// width, low-order word first.
func parseLiteral(t Type, lit string) ([]uint32, error) {
	if t.IsVector() {
		return nil, fmt.Errorf("scalar literal for vector type %s", t)
	}
	switch t.Kind {
	case TypeFloat:
		switch t.Width {
		case 32:
			f, err := strconv.ParseFloat(lit, 32)
			if err != nil {
				return nil, err
			}
			return []uint32{math.Float32bits(float32(f))}, nil
		case 64:
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, err
			}
			bits := math.Float64bits(f)
			return []uint32{uint32(bits), uint32(bits >> 32)}, nil
		}
		return nil, fmt.Errorf("%d-bit float literals are not supported", t.Width)

	case TypeSignedInt:
		v, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return nil, err
		}
		return signedWords(v, t.Width)

	case TypeUnsignedInt:
		v, err := strconv.ParseUint(lit, 0, 64)
		if err != nil {
			return nil, err
		}
		return unsignedWords(v, t.Width)
	}
	return nil, fmt.Errorf("type %s has no numeric literals", t)
}

func signedWords(v int64, width uint32) ([]uint32, error) {
	switch width {
	case 8:
		n, err := safecast.Conv[int8](v)
		return []uint32{uint32(uint8(n))}, err
	case 16:
		n, err := safecast.Conv[int16](v)
		return []uint32{uint32(uint16(n))}, err
	case 32:
		n, err := safecast.Conv[int32](v)
		return []uint32{uint32(n)}, err
	case 64:
		return []uint32{uint32(v), uint32(uint64(v) >> 32)}, nil
	}
	return nil, fmt.Errorf("unsupported integer width %d", width)
}

func unsignedWords(v uint64, width uint32) ([]uint32, error) {
	switch width {
	case 8:
		n, err := safecast.Conv[uint8](v)
		return []uint32{uint32(n)}, err
	case 16:
		n, err := safecast.Conv[uint16](v)
		return []uint32{uint32(n)}, err
	case 32:
		n, err := safecast.Conv[uint32](v)
		return []uint32{n}, err
	case 64:
		return []uint32{uint32(v), uint32(v >> 32)}, nil
	}
	return nil, fmt.Errorf("unsupported integer width %d", width)
}

// tokenize splits a line into whitespace-separated tokens, keeping quoted
// strings intact and dropping ';' comments.
func tokenize(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ';':
			return toks, nil
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, line[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' && line[j] != '\r' && line[j] != ';' {
				j++
			}
			toks = append(toks, line[i:j])
			i = j
		}
	}
	return toks, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
