package lower

import (
	"context"
	"strings"
	"testing"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// prelude declares the types and constants shared by the tests.
const prelude = `
OpCapability Shader
OpMemoryModel Logical GLSL450
%void = OpTypeVoid
%voidfn = OpTypeFunction %void
%bool = OpTypeBool
%int = OpTypeInt 32 1
%uint = OpTypeInt 32 0
%float = OpTypeFloat 32
%long = OpTypeInt 64 1
%v2int = OpTypeVector %int 2
%v2uint = OpTypeVector %uint 2
%v2float = OpTypeVector %float 2
%v3int = OpTypeVector %int 3
%true = OpConstantTrue %bool
%one = OpConstant %int 1
%two = OpConstant %int 2
%eight = OpConstant %uint 8
%uone = OpConstant %uint 1
%fone = OpConstant %float 1.0
%ftwo = OpConstant %float 2.0
%v2one = OpConstantComposite %v2int %one %one
%v2eight = OpConstantComposite %v2uint %eight %eight
%v2fone = OpConstantComposite %v2float %fone %fone
`

// wrapMain puts body into a void function named main.
func wrapMain(body string) string {
	return prelude + `
%main = OpFunction %void None %voidfn
%entry = OpLabel
` + body + `
OpReturn
OpFunctionEnd
`
}

func parseModule(source string) (*spirv.Module, error) {
	return spirv.ParseAssembly(source)
}

func parse(t *testing.T, source string) *spirv.Module {
	t.Helper()
	m, err := parseModule(source)
	if err != nil {
		t.Fatalf("ParseAssembly failed: %v", err)
	}
	return m
}

// lowerMain lowers a main function built from body.
func lowerMain(t *testing.T, body string) *ir.Function {
	t.Helper()
	res, err := Lower(context.Background(), parse(t, wrapMain(body)), DefaultOptions())
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if len(res.Module.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(res.Module.Functions))
	}
	return res.Module.Functions[0]
}

// lowerMainErr lowers a main function and returns the error.
func lowerMainErr(t *testing.T, body string) error {
	t.Helper()
	_, err := Lower(context.Background(), parse(t, wrapMain(body)), DefaultOptions())
	if err == nil {
		t.Fatalf("Lower succeeded, want error for:\n%s", strings.TrimSpace(body))
	}
	return err
}
