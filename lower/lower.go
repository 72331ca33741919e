package lower

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// Policy decides what happens to a module when one of its functions fails
// to lower.
type Policy uint8

const (
	// PolicyAbort fails the whole module on the first error.
	PolicyAbort Policy = iota
	// PolicySkip drops failing functions and reports them in Result.Skipped.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicySkip:
		return "skip"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy parses "abort" or "skip".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	}
	return PolicyAbort, fmt.Errorf("unknown error policy %q (want abort or skip)", s)
}

// Options configures lowering.
type Options struct {
	// Jobs is the number of functions lowered concurrently (default: 1).
	Jobs int

	// OnError selects the abort/skip policy.
	OnError Policy

	// Logger receives per-function records. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Jobs:    1,
		OnError: PolicyAbort,
	}
}

// Result contains the lowered module and the functions dropped under
// PolicySkip.
type Result struct {
	Module  *ir.Module
	Skipped []*Error
}

// Lower converts every function of a SPIR-V module to IR.
//
// The value table is built once and shared read-only; each function gets
// its own scope and block, so functions may be lowered in parallel when
// opts.Jobs > 1. The output keeps the module's function order. Cancellation
// is observed between functions.
func Lower(ctx context.Context, m *spirv.Module, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	table := NewValueTable(m)
	funcs := make([]*ir.Function, len(m.Functions))
	failures := make([]*Error, len(m.Functions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range m.Functions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := LowerFunction(table, m.Functions[i])
			if err != nil {
				failures[i] = asError(m, m.Functions[i], err)
				if opts.OnError == PolicyAbort {
					return failures[i]
				}
				logger.Warn("skipping function",
					"function", failures[i].Function,
					"error", failures[i].Err)
				return nil
			}
			logger.Debug("lowered function",
				"function", f.Name,
				"params", len(f.Params),
				"instructions", len(f.Block.Instructions))
			funcs[i] = f
			return nil
		})
	}
	waitErr := g.Wait()

	if opts.OnError == PolicyAbort {
		// Report the earliest failing function, not the first to finish.
		for _, failure := range failures {
			if failure != nil {
				return nil, failure
			}
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}

	result := &Result{Module: &ir.Module{Constants: table.Constants()}}
	for i, f := range funcs {
		if f != nil {
			result.Module.Functions = append(result.Module.Functions, f)
		} else if failures[i] != nil {
			result.Skipped = append(result.Skipped, failures[i])
		}
	}
	logger.Debug("lowered module",
		"functions", len(result.Module.Functions),
		"skipped", len(result.Skipped),
		"constants", len(result.Module.Constants))
	return result, nil
}

func asError(m *spirv.Module, fn spirv.Function, err error) *Error {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr
	}
	return &Error{Function: m.Name(fn.Result), Op: spirv.OpFunction, Result: fn.Result, Err: err}
}

// LowerFunction lowers a single function against a module value table.
// Parameters become IR parameters, OpReturn/OpReturnValue the block
// terminator, and every other instruction goes through the Emitter.
func LowerFunction(table *ValueTable, fn spirv.Function) (*ir.Function, error) {
	m := table.Module()
	name := m.Name(fn.Result)
	header := spirv.Instruction{Opcode: spirv.OpFunction, ResultType: fn.ResultType, Result: fn.Result}

	var returnType ir.TypeInner
	if t, ok := m.Types[fn.ResultType]; !ok || t.Kind != spirv.TypeVoid {
		rt, err := table.ResultType(fn.ResultType)
		if err != nil {
			return nil, newError(name, header, err)
		}
		returnType = rt
	}

	f := ir.NewFunction(name, returnType)
	e := NewEmitter(table, f)
	labels := 0

	for _, inst := range fn.Body {
		switch inst.Opcode {
		case spirv.OpFunctionParameter:
			typ, err := table.ResultType(inst.ResultType)
			if err != nil {
				return nil, newError(name, inst, err)
			}
			e.Define(inst.Result, f.AddParam(typ))

		case spirv.OpLabel:
			labels++
			if labels > 1 {
				return nil, newError(name, inst, fmt.Errorf("%w: function has more than one block", ErrControlFlow))
			}

		case spirv.OpReturn:
			f.SetReturn(nil)

		case spirv.OpReturnValue:
			if len(inst.Operands) != 1 {
				return nil, newError(name, inst, fmt.Errorf("%w: got %d, want 1", ErrOperandCount, len(inst.Operands)))
			}
			v, err := e.Resolve(inst.Operands[0])
			if err != nil {
				return nil, newError(name, inst, err)
			}
			f.SetReturn(v)

		case spirv.OpBranch, spirv.OpBranchConditional, spirv.OpSwitch, spirv.OpSelectionMerge,
			spirv.OpLoopMerge, spirv.OpPhi, spirv.OpKill, spirv.OpUnreachable:
			return nil, newError(name, inst, ErrControlFlow)

		default:
			if _, err := e.Emit(inst); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
