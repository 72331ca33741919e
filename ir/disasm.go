package ir

import (
	"math"
	"strconv"
	"strings"
)

// Disassemble renders a module in the canonical text form:
//
//	%main = func():void {
//	  $B1: {
//	    %1:i32 = spirv.bitwise_and<i32> 1i, 8u
//	    ret
//	  }
//	}
func Disassemble(m *Module) string {
	var sb strings.Builder
	for i, f := range m.Functions {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeFunction(&sb, f)
	}
	return sb.String()
}

// DisassembleFunction renders a single function.
func DisassembleFunction(f *Function) string {
	var sb strings.Builder
	writeFunction(&sb, f)
	return sb.String()
}

func writeFunction(sb *strings.Builder, f *Function) {
	sb.WriteString("%")
	sb.WriteString(f.Name)
	sb.WriteString(" = func(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.ID().String())
		sb.WriteByte(':')
		sb.WriteString(p.Type().String())
	}
	sb.WriteString("):")
	sb.WriteString(TypeName(f.ReturnType))
	sb.WriteString(" {\n  $B1: {\n")
	for _, inst := range f.Block.Instructions {
		sb.WriteString("    ")
		sb.WriteString(FormatInstruction(inst))
		sb.WriteByte('\n')
	}
	if ret := f.Block.Terminator; ret != nil {
		sb.WriteString("    ret")
		if ret.Value != nil {
			sb.WriteByte(' ')
			sb.WriteString(FormatValue(ret.Value.Value()))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  }\n}\n")
}

// FormatInstruction renders one instruction. The generic parameter is shown
// as its element type; the full shape is on the result annotation.
func FormatInstruction(inst *Instruction) string {
	var sb strings.Builder
	if inst.Result != nil {
		sb.WriteString(inst.Result.ID().String())
		sb.WriteByte(':')
		sb.WriteString(TypeName(inst.Result.Type()))
		sb.WriteString(" = ")
	}
	sb.WriteString(inst.Op)
	if inst.Generic != nil {
		sb.WriteByte('<')
		if elem, ok := ElementType(inst.Generic); ok {
			sb.WriteString(elem.String())
		} else {
			sb.WriteString(inst.Generic.String())
		}
		sb.WriteByte('>')
	}
	for i, op := range inst.Operands {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatValue(op.Value()))
	}
	return sb.String()
}

// FormatValue renders a value reference: constants inline, everything else
// by SSA id.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case *Constant:
		return FormatConstant(v)
	case *FunctionParam:
		return v.ID().String()
	case *InstructionResult:
		return v.ID().String()
	case nil:
		return "undef"
	}
	return "?"
}

// FormatConstant renders a constant with its type suffix, e.g. 1i, 8u,
// 2.0f, vec2<u32>(8u) for a splat or vec2<i32>(1i, 2i).
func FormatConstant(c *Constant) string {
	elem, _ := ElementType(c.Type())
	bits := c.Bits()
	if _, ok := c.Type().(VectorType); !ok {
		if len(bits) == 0 {
			return "undef"
		}
		return formatScalar(elem, bits[0])
	}

	if len(bits) == 0 {
		return c.Type().String() + "()"
	}
	splat := true
	for _, b := range bits[1:] {
		if b != bits[0] {
			splat = false
			break
		}
	}
	var sb strings.Builder
	sb.WriteString(c.Type().String())
	sb.WriteByte('(')
	if splat {
		sb.WriteString(formatScalar(elem, bits[0]))
	} else {
		for i, b := range bits {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatScalar(elem, b))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatScalar(s ScalarType, bits uint32) string {
	switch s.Kind {
	case ScalarSint:
		return strconv.FormatInt(int64(int32(bits)), 10) + "i"
	case ScalarUint:
		return strconv.FormatUint(uint64(bits), 10) + "u"
	case ScalarFloat:
		return formatFloat(math.Float32frombits(bits)) + "f"
	case ScalarBool:
		if bits != 0 {
			return "true"
		}
		return "false"
	}
	return "0x" + strconv.FormatUint(uint64(bits), 16)
}

func formatFloat(f float32) string {
	switch {
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	case math.IsNaN(float64(f)):
		return "nan"
	}
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
