package spvfront

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/lower"
	"github.com/gogpu/spvfront/spirv"
)

const maskSource = `
OpCapability Shader
OpMemoryModel Logical GLSL450
%void = OpTypeVoid
%voidfn = OpTypeFunction %void
%int = OpTypeInt 32 1
%uint = OpTypeInt 32 0
%float = OpTypeFloat 32
%v2float = OpTypeVector %float 2
%one = OpConstant %int 1
%eight = OpConstant %uint 8
%ftwo = OpConstant %float 2.0
%fone = OpConstant %float 1.0
%v2fone = OpConstantComposite %v2float %fone %fone
%main = OpFunction %void None %voidfn
%entry = OpLabel
%a = OpBitwiseAnd %int %one %eight
%b = OpShiftLeftLogical %uint %eight %one
%c = OpBitcast %uint %ftwo
%d = OpQuantizeToF16 %v2float %v2fone
OpReturn
OpFunctionEnd
`

// TestLower runs the whole pipeline on a small module.
func TestLower(t *testing.T) {
	module, err := Lower(maskSource)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}

	want := `%main = func():void {
  $B1: {
    %1:i32 = spirv.bitwise_and<i32> 1i, 8u
    %2:u32 = spirv.shift_left_logical<u32> 8u, 1i
    %3:u32 = bitcast 2.0f
    %4:vec2<f32> = quantizeToF16 vec2<f32>(1.0f)
    ret
  }
}
`
	if got := ir.Disassemble(module); got != want {
		t.Errorf("Disassemble mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// TestLowerParseError checks that assembly errors keep their line.
func TestLowerParseError(t *testing.T) {
	_, err := Lower("%int = OpTypeInt 32 1\n%x = OpNope %int")
	if err == nil {
		t.Fatal("expected error")
	}
	var asmErr *spirv.AsmError
	if !errors.As(err, &asmErr) || asmErr.Line != 2 {
		t.Errorf("error = %v, want an assembly error on line 2", err)
	}
	if !strings.HasPrefix(err.Error(), "parse error: ") {
		t.Errorf("error = %q, want parse error prefix", err)
	}
}

// TestLowerError checks that lowering errors can be matched by kind.
func TestLowerError(t *testing.T) {
	source := strings.Replace(maskSource, "%a = OpBitwiseAnd %int", "%a = OpBitwiseAnd %v2float", 1)
	_, err := Lower(source)
	if !errors.Is(err, lower.ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
}

// TestLowerWithOptionsSkip checks that skipped functions leave the rest.
func TestLowerWithOptionsSkip(t *testing.T) {
	source := maskSource + `
%bad = OpFunction %void None %voidfn
%l2 = OpLabel
%x = OpSDiv %int %one %one
OpReturn
OpFunctionEnd
`
	if _, err := Lower(source); !errors.Is(err, lower.ErrUnknownOpcode) {
		t.Fatalf("default options: error = %v, want ErrUnknownOpcode", err)
	}

	opts := DefaultOptions()
	opts.Lower.OnError = lower.PolicySkip
	module, err := LowerWithOptions(context.Background(), source, opts)
	if err != nil {
		t.Fatalf("LowerWithOptions failed: %v", err)
	}
	if len(module.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(module.Functions))
	}
	if _, ok := module.Function("bad"); ok {
		t.Error("failing function was not skipped")
	}
}

// TestValidate checks that the facade reports the first validation error.
func TestValidate(t *testing.T) {
	module, err := Lower(maskSource)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if err := Validate(module); err != nil {
		t.Errorf("Validate failed on a lowered module: %v", err)
	}

	module.Functions[0].Block.Instructions[0].Generic = nil
	err = Validate(module)
	var verr *ir.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ir.ValidationError", err)
	}
	if verr.Function != "main" || verr.Instruction != 0 {
		t.Errorf("error context = %s/%d, want main/0", verr.Function, verr.Instruction)
	}
}
