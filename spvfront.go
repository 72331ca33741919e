// Package spvfront provides a Pure Go SPIR-V front end.
//
// spvfront lowers SPIR-V bitwise, shift, bitcast, quantization and negation
// instructions into a statically typed SSA IR in which every value carries
// an exact type (i32 vs u32, scalar vs vecN).
//
// Example usage:
//
//	source := `
//	%int = OpTypeInt 32 1
//	%uint = OpTypeInt 32 0
//	...
//	%r = OpBitwiseAnd %int %one %eight
//	`
//	module, err := spvfront.Lower(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(ir.Disassemble(module))
//
// The individual stages live in the spirv (assembly reader and module
// model), lower (type decoding, opcode classification, emission) and ir
// (IR model, printer, validator, encoding) packages.
package spvfront

import (
	"context"
	"fmt"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/lower"
	"github.com/gogpu/spvfront/spirv"
)

// Options configures the one-call pipeline.
type Options struct {
	// Lower configures the lowering driver.
	Lower lower.Options

	// Validate enables IR validation after lowering
	Validate bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Lower:    lower.DefaultOptions(),
		Validate: true,
	}
}

// Lower assembles SPIR-V text and lowers it to IR using default options.
func Lower(source string) (*ir.Module, error) {
	return LowerWithOptions(context.Background(), source, DefaultOptions())
}

// LowerWithOptions runs the pipeline:
//  1. Parse SPIR-V assembly into a module table
//  2. Lower every function to IR
//  3. Validate IR (if enabled)
func LowerWithOptions(ctx context.Context, source string, opts Options) (*ir.Module, error) {
	module, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	result, err := lower.Lower(ctx, module, opts.Lower)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}

	if opts.Validate {
		if err := Validate(result.Module); err != nil {
			return nil, err
		}
	}
	return result.Module, nil
}

// Parse reads SPIR-V assembly text.
func Parse(source string) (*spirv.Module, error) {
	return spirv.ParseAssembly(source)
}

// Validate validates an IR module and returns the first problem found.
func Validate(module *ir.Module) error {
	validationErrors, err := ir.Validate(module)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if len(validationErrors) > 0 {
		return fmt.Errorf("validation failed: %w", &validationErrors[0])
	}
	return nil
}
