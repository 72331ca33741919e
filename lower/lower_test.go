package lower

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/spvfront/ir"
)

// multiFunction builds a module with n functions named f0..fn-1. The
// function at index bad, if any, uses a 64-bit result type.
func multiFunction(n, bad int) string {
	var sb strings.Builder
	sb.WriteString(prelude)
	for i := 0; i < n; i++ {
		resultType := "%uint"
		if i == bad {
			resultType = "%long"
		}
		fmt.Fprintf(&sb, `
%%f%d = OpFunction %%void None %%voidfn
%%entry%d = OpLabel
%%a%d = OpBitwiseXor %s %%eight %%one
%%b%d = OpNot %%int %%a%d
OpReturn
OpFunctionEnd
`, i, i, i, resultType, i, i)
	}
	return sb.String()
}

func TestLowerFunctionWithParamsAndReturn(t *testing.T) {
	src := prelude + `
%fn = OpTypeFunction %int %uint
%f = OpFunction %int None %fn
%p = OpFunctionParameter %uint
%entry = OpLabel
%r = OpShiftLeftLogical %int %p %one
OpReturnValue %r
OpFunctionEnd
`
	res, err := Lower(context.Background(), parse(t, src), DefaultOptions())
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	got := ir.DisassembleFunction(res.Module.Functions[0])
	want := `%f = func(%1:u32):i32 {
  $B1: {
    %2:i32 = spirv.shift_left_logical<i32> %1, 1i
    ret %2
  }
}
`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
	if errs, err := ir.Validate(res.Module); err != nil || len(errs) > 0 {
		t.Errorf("Validate = %v, %v", errs, err)
	}
}

func TestLowerVoidFunction(t *testing.T) {
	f := lowerMain(t, "%r = OpNot %uint %eight")
	if f.ReturnType != nil {
		t.Errorf("ReturnType = %v, want void", f.ReturnType)
	}
	if f.Block.Terminator == nil || f.Block.Terminator.Value != nil {
		t.Errorf("Terminator = %+v, want void return", f.Block.Terminator)
	}
}

func TestLowerUnsupportedParamType(t *testing.T) {
	src := prelude + `
%fn = OpTypeFunction %void %long
%f = OpFunction %void None %fn
%p = OpFunctionParameter %long
%entry = OpLabel
OpReturn
OpFunctionEnd
`
	_, err := Lower(context.Background(), parse(t, src), DefaultOptions())
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestLowerAbortReportsEarliestFailure(t *testing.T) {
	m := parse(t, multiFunction(6, 2))
	for _, jobs := range []int{1, 4} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Jobs = jobs
			res, err := Lower(context.Background(), m, opts)
			if res != nil {
				t.Error("Result is not nil on abort")
			}
			var lerr *Error
			if !errors.As(err, &lerr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if lerr.Function != "f2" {
				t.Errorf("Function = %q, want f2", lerr.Function)
			}
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("error = %v, want ErrUnsupportedType", err)
			}
		})
	}
}

func TestLowerSkipPolicy(t *testing.T) {
	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.OnError = PolicySkip
	opts.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := Lower(context.Background(), parse(t, multiFunction(4, 1)), opts)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if len(res.Module.Functions) != 3 {
		t.Fatalf("got %d functions, want 3", len(res.Module.Functions))
	}
	for i, want := range []string{"f0", "f2", "f3"} {
		if got := res.Module.Functions[i].Name; got != want {
			t.Errorf("function %d = %q, want %q", i, got, want)
		}
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Function != "f1" {
		t.Fatalf("Skipped = %v, want [f1]", res.Skipped)
	}
	if !strings.Contains(logs.String(), "skipping function") {
		t.Errorf("log does not mention the skipped function:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "lowered module") {
		t.Errorf("log has no module summary:\n%s", logs.String())
	}
}

func TestLowerParallelMatchesSequential(t *testing.T) {
	m := parse(t, multiFunction(32, -1))

	seq, err := Lower(context.Background(), m, DefaultOptions())
	if err != nil {
		t.Fatalf("sequential Lower failed: %v", err)
	}
	opts := DefaultOptions()
	opts.Jobs = 8
	par, err := Lower(context.Background(), m, opts)
	if err != nil {
		t.Fatalf("parallel Lower failed: %v", err)
	}

	if got, want := ir.Disassemble(par.Module), ir.Disassemble(seq.Module); got != want {
		t.Errorf("parallel output differs from sequential:\n%s\nwant:\n%s", got, want)
	}
}

func TestLowerIsDeterministic(t *testing.T) {
	m := parse(t, multiFunction(3, -1))
	first, err := Lower(context.Background(), m, DefaultOptions())
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	second, err := Lower(context.Background(), m, DefaultOptions())
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if ir.Disassemble(first.Module) != ir.Disassemble(second.Module) {
		t.Error("lowering the same module twice gave different output")
	}
}

func TestLowerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Lower(ctx, parse(t, multiFunction(3, -1)), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLowerKeepsModuleConstants(t *testing.T) {
	res, err := Lower(context.Background(), parse(t, wrapMain("")), DefaultOptions())
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	// %true has no IR form; every other prelude constant does.
	if got, want := len(res.Module.Constants), 9; got != want {
		t.Errorf("got %d constants, want %d", got, want)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"abort", PolicyAbort, false},
		{"", PolicyAbort, false},
		{" Skip ", PolicySkip, false},
		{"ignore", PolicyAbort, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
