package ir

// sampleModule builds a small module by hand:
//
//	%main = func(%1:u32):i32 {
//	  $B1: {
//	    %2:i32 = spirv.bitwise_and<i32> 1i, %1
//	    %3:f32 = bitcast %2
//	    ret %2
//	  }
//	}
func sampleModule() *Module {
	one := NewConstant(I32, []uint32{1})
	eight := NewConstant(Vec(Vec2, U32), []uint32{8, 8})

	f := NewFunction("main", I32)
	p := f.AddParam(U32)
	and := f.Append("spirv.bitwise_and", I32, I32, []Operand{Use(one), Use(p)})
	f.Append("bitcast", nil, F32, []Operand{Use(and.Result)})
	f.SetReturn(and.Result)

	return &Module{
		Constants: []*Constant{one, eight},
		Functions: []*Function{f},
	}
}
