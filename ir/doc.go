// Package ir defines the typed SSA intermediate representation produced by
// the SPIR-V front end.
//
// # Structure
//
// A Module holds module-scope constants and a list of functions. Each
// Function has parameters, an optional return type and a single block of
// instructions ending in a return.
//
// Every Value (constant, parameter or instruction result) has exactly one
// type, fixed when it is created. Instructions consume values through
// Operand, which exposes the value's own type and nothing else; an
// instruction never changes the type of what it consumes.
//
// # Operations
//
// Core operations (bitcast, quantizeToF16, negation) have no type
// parameter. Operations in the spirv.* namespace are polymorphic over the
// signedness of their operands and carry an explicit Generic type, always
// equal to the result type:
//
//	%1:i32 = spirv.bitwise_and<i32> 1i, 8u
//
// # Serialization
//
// Disassemble renders the text form used in tests and by the CLI. Encode and
// Decode write and read a msgpack artifact.
package ir
