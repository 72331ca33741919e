package spirv

import (
	"math"
	"strings"
	"testing"
)

func TestModuleBuilder_Types(t *testing.T) {
	b := NewModuleBuilder()
	void := b.AddTypeVoid()
	boolType := b.AddTypeBool()
	intType := b.AddTypeInt(32, true)
	uintType := b.AddTypeInt(32, false)
	floatType := b.AddTypeFloat(32)
	vec3 := b.AddTypeVector(uintType, 3)
	fn := b.AddTypeFunction(void)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		id   ID
		want Type
		str  string
	}{
		{void, Type{Kind: TypeVoid}, "void"},
		{boolType, Type{Kind: TypeBool, Components: 1}, "bool"},
		{intType, Type{Kind: TypeSignedInt, Width: 32, Components: 1}, "int32"},
		{uintType, Type{Kind: TypeUnsignedInt, Width: 32, Components: 1}, "uint32"},
		{floatType, Type{Kind: TypeFloat, Width: 32, Components: 1}, "float32"},
		{vec3, Type{Kind: TypeUnsignedInt, Width: 32, Components: 3}, "v3uint32"},
		{fn, Type{Kind: TypeFunction}, "function"},
	}
	for _, tt := range tests {
		got, ok := m.Types[tt.id]
		if !ok {
			t.Errorf("type %s not declared", tt.id)
			continue
		}
		if got != tt.want {
			t.Errorf("type %s = %+v, want %+v", tt.id, got, tt.want)
		}
		if got.String() != tt.str {
			t.Errorf("type %s String() = %q, want %q", tt.id, got.String(), tt.str)
		}
	}

	if got := m.Types[vec3].Scalar(); got != m.Types[uintType] {
		t.Errorf("Scalar() = %v, want uint32", got)
	}
	if m.Bound != fn+1 {
		t.Errorf("Bound = %d, want %d", m.Bound, fn+1)
	}
}

func TestModuleBuilder_Constants(t *testing.T) {
	b := NewModuleBuilder()
	intType := b.AddTypeInt(32, true)
	floatType := b.AddTypeFloat(32)
	boolType := b.AddTypeBool()
	vec2 := b.AddTypeVector(intType, 2)

	minusOne := b.AddConstantInt32(intType, -1)
	half := b.AddConstantFloat32(floatType, 0.5)
	yes := b.AddConstantBool(boolType, true)
	pair := b.AddConstantComposite(vec2, minusOne, minusOne)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := m.Constants[minusOne].Words; len(got) != 1 || got[0] != 0xffffffff {
		t.Errorf("int constant words = %v, want [0xffffffff]", got)
	}
	if got := m.Constants[half].Words; len(got) != 1 || got[0] != math.Float32bits(0.5) {
		t.Errorf("float constant words = %v", got)
	}
	if got := m.Constants[yes].Words; len(got) != 1 || got[0] != 1 {
		t.Errorf("bool constant words = %v, want [1]", got)
	}
	c := m.Constants[pair]
	if !c.IsComposite() || len(c.Constituents) != 2 || c.Constituents[0] != minusOne {
		t.Errorf("composite = %+v", c)
	}
	if m.Constants[half].IsComposite() {
		t.Error("scalar constant reported as composite")
	}

	ids := m.ConstantIDs()
	want := []ID{minusOne, half, yes, pair}
	if len(ids) != len(want) {
		t.Fatalf("ConstantIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ConstantIDs[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestModuleBuilder_Function(t *testing.T) {
	b := NewModuleBuilder()
	intType := b.AddTypeInt(32, true)
	fnType := b.AddTypeFunction(intType, intType)
	one := b.AddConstantInt32(intType, 1)

	fn := b.AddFunction(intType, fnType)
	b.AddName(fn, "twice")
	param := b.AddFunctionParameter(intType)
	b.AddLabel()
	sum := b.AddBinaryOp(OpIAdd, intType, param, param)
	neg := b.AddUnaryOp(OpSNegate, intType, sum)
	and := b.AddInstruction(OpBitwiseAnd, intType, neg, one)
	b.AddReturnValue(and)
	b.AddFunctionEnd()

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(m.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(m.Functions))
	}
	f := m.Functions[0]
	if f.Result != fn || f.ResultType != intType || f.FunctionType != fnType {
		t.Errorf("function header = %+v", f)
	}
	if m.Name(fn) != "twice" {
		t.Errorf("Name = %q, want twice", m.Name(fn))
	}
	if m.Name(sum) != sum.String()[1:] {
		t.Errorf("unnamed id Name = %q", m.Name(sum))
	}

	wantOps := []OpCode{OpFunctionParameter, OpLabel, OpIAdd, OpSNegate, OpBitwiseAnd, OpReturnValue}
	if len(f.Body) != len(wantOps) {
		t.Fatalf("body has %d instructions, want %d", len(f.Body), len(wantOps))
	}
	for i, op := range wantOps {
		if f.Body[i].Opcode != op {
			t.Errorf("body[%d] = %v, want %v", i, f.Body[i].Opcode, op)
		}
	}
	if got, want := f.Body[2].String(), sum.String()+" = OpIAdd "+intType.String()+" "+param.String()+" "+param.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestModuleBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *ModuleBuilder)
		want  string
	}{
		{
			name: "vector of undeclared type",
			build: func(b *ModuleBuilder) {
				b.AddTypeVector(ID(99), 2)
			},
			want: "is not declared",
		},
		{
			name: "vector of vectors",
			build: func(b *ModuleBuilder) {
				v := b.AddTypeVector(b.AddTypeFloat(32), 2)
				b.AddTypeVector(v, 2)
			},
			want: "is not a scalar",
		},
		{
			name: "one component vector",
			build: func(b *ModuleBuilder) {
				b.AddTypeVector(b.AddTypeFloat(32), 1)
			},
			want: "at least 2",
		},
		{
			name: "constant of undeclared type",
			build: func(b *ModuleBuilder) {
				b.AddConstant(ID(42), 1)
			},
			want: "is not declared",
		},
		{
			name: "instruction outside function",
			build: func(b *ModuleBuilder) {
				i := b.AddTypeInt(32, true)
				b.AddUnaryOp(OpNot, i, i)
			},
			want: "outside of a function",
		},
		{
			name: "nested function",
			build: func(b *ModuleBuilder) {
				v := b.AddTypeVoid()
				fn := b.AddTypeFunction(v)
				b.AddFunction(v, fn)
				b.AddFunction(v, fn)
			},
			want: "starts inside function",
		},
		{
			name: "missing function end",
			build: func(b *ModuleBuilder) {
				v := b.AddTypeVoid()
				b.AddFunction(v, b.AddTypeFunction(v))
				b.AddLabel()
				b.AddReturn()
			},
			want: "missing OpFunctionEnd",
		},
		{
			name: "stray function end",
			build: func(b *ModuleBuilder) {
				b.AddFunctionEnd()
			},
			want: "outside of a function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewModuleBuilder()
			tt.build(b)
			_, err := b.Build()
			if err == nil {
				t.Fatal("Build succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestModuleBuilder_FirstErrorWins(t *testing.T) {
	b := NewModuleBuilder()
	b.AddConstant(ID(7), 1)
	b.AddFunctionEnd()

	_, err := b.Build()
	if err == nil || !strings.Contains(err.Error(), "constant") {
		t.Errorf("error = %v, want the constant error", err)
	}
}
