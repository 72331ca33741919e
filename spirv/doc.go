// Package spirv holds the decoded form of a SPIR-V module consumed by the
// lowering pass.
//
// A Module is a type table, a constant table, debug names and a list of
// functions whose bodies are flat instruction streams. Types are canonical:
// int32, uint32, float32, bool and vectors of them are distinguished by
// TypeKind, Width and Components.
//
// Modules are produced either programmatically with ModuleBuilder or from
// textual assembly with ParseAssembly:
//
//	module, err := spirv.ParseAssembly(`
//	    %int = OpTypeInt 32 1
//	    %one = OpConstant %int 1
//	`)
//
// Once built, a Module is treated as read-only.
package spirv
