package lower_test

import (
	"context"
	"fmt"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/lower"
	"github.com/gogpu/spvfront/spirv"
)

func ExampleLower() {
	module, err := spirv.ParseAssembly(`
%void = OpTypeVoid
%voidfn = OpTypeFunction %void
%int = OpTypeInt 32 1
%uint = OpTypeInt 32 0
%one = OpConstant %int 1
%eight = OpConstant %uint 8
%main = OpFunction %void None %voidfn
%entry = OpLabel
%r = OpBitwiseAnd %int %one %eight
OpReturn
OpFunctionEnd
`)
	if err != nil {
		fmt.Println(err)
		return
	}

	result, err := lower.Lower(context.Background(), module, lower.DefaultOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(ir.Disassemble(result.Module))
	// Output:
	// %main = func():void {
	//   $B1: {
	//     %1:i32 = spirv.bitwise_and<i32> 1i, 8u
	//     ret
	//   }
	// }
}

func ExampleClassify() {
	for _, op := range []spirv.OpCode{spirv.OpShiftRightLogical, spirv.OpBitcast} {
		class, _ := lower.Classify(op)
		fmt.Println(op, class.Family, class.Name)
	}
	// Output:
	// OpShiftRightLogical polymorphic spirv.shift_right_logical
	// OpBitcast core bitcast
}
