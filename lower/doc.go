// Package lower converts SPIR-V bit-manipulation instructions into spvfront IR.
//
// SPIR-V spells BitwiseAnd, shifts, Not and SNegate with one opcode for
// every combination of operand signedness, because two's-complement bit
// patterns are the same under either reading. The IR instead requires an
// exact type on every value. Lowering reconciles the two:
//
//   - Signedness-polymorphic opcodes become spirv.<snake_case> operations
//     whose generic parameter is the declared result type, while each
//     operand keeps the type it was defined with:
//
//     OpBitwiseAnd %int %one %eight   ->   %1:i32 = spirv.bitwise_and<i32> 1i, 8u
//
//   - Bitcast, QuantizeToF16 and FNegate become core operations
//     (bitcast, quantizeToF16, negation) with no generic parameter.
//
// # Pipeline
//
// For each instruction in program order the Emitter classifies the opcode,
// decodes the result type, resolves operands against the function scope
// and the module ValueTable, then appends one instruction:
//
//	result, err := lower.Lower(ctx, module, lower.DefaultOptions())
//	fmt.Print(ir.Disassemble(result.Module))
//
// Errors wrap ErrUnsupportedType, ErrUnresolvedOperand, ErrUnknownOpcode,
// ErrShapeMismatch, ErrOperandCount or ErrControlFlow inside an *Error that
// names the function, opcode and result id.
package lower
