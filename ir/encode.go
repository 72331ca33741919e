package ir

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the encoded layout changes.
const encodingSchemaVersion uint16 = 1

// ErrSchemaMismatch is returned by Decode for artifacts written with a
// different schema version.
var ErrSchemaMismatch = errors.New("ir: schema version mismatch")

// Value reference kinds in the encoded form.
const (
	refConstant uint8 = iota
	refParam
	refResult
)

type encodedModule struct {
	Schema    uint16            `msgpack:"schema"`
	Types     []encodedType     `msgpack:"types"`
	Constants []encodedConstant `msgpack:"constants"`
	Functions []encodedFunction `msgpack:"functions"`
}

type encodedType struct {
	Kind  uint8 `msgpack:"kind"`
	Width uint8 `msgpack:"width"`
	Size  uint8 `msgpack:"size"` // 0 for scalars
}

type encodedConstant struct {
	Type TypeHandle `msgpack:"type"`
	Bits []uint32   `msgpack:"bits"`
}

type encodedRef struct {
	Kind  uint8  `msgpack:"kind"`
	Index uint32 `msgpack:"index"` // constant index or SSA id
}

type encodedInstruction struct {
	Op       string       `msgpack:"op"`
	Generic  *TypeHandle  `msgpack:"generic,omitempty"`
	Operands []encodedRef `msgpack:"operands"`
	ID       ValueID      `msgpack:"id"`
	Type     TypeHandle   `msgpack:"type"`
}

type encodedParam struct {
	ID   ValueID    `msgpack:"id"`
	Type TypeHandle `msgpack:"type"`
}

type encodedFunction struct {
	Name         string               `msgpack:"name"`
	Params       []encodedParam       `msgpack:"params"`
	ReturnType   *TypeHandle          `msgpack:"return_type,omitempty"`
	Instructions []encodedInstruction `msgpack:"instructions"`
	HasReturn    bool                 `msgpack:"has_return"`
	ReturnValue  *encodedRef          `msgpack:"return_value,omitempty"`
}

// Encode serializes a module to msgpack. Types are deduplicated through a
// TypeRegistry and values are referenced by constant index or SSA id.
func Encode(m *Module) ([]byte, error) {
	reg := NewTypeRegistry()
	out := encodedModule{Schema: encodingSchemaVersion}

	constIndex := make(map[*Constant]uint32, len(m.Constants))
	for i, c := range m.Constants {
		constIndex[c] = uint32(i)
		out.Constants = append(out.Constants, encodedConstant{
			Type: reg.GetOrCreate(c.Type()),
			Bits: c.Bits(),
		})
	}

	ref := func(v Value) (encodedRef, error) {
		switch v := v.(type) {
		case *Constant:
			idx, ok := constIndex[v]
			if !ok {
				return encodedRef{}, fmt.Errorf("constant %s is not part of the module", FormatConstant(v))
			}
			return encodedRef{Kind: refConstant, Index: idx}, nil
		case *FunctionParam:
			return encodedRef{Kind: refParam, Index: uint32(v.ID())}, nil
		case *InstructionResult:
			return encodedRef{Kind: refResult, Index: uint32(v.ID())}, nil
		}
		return encodedRef{}, fmt.Errorf("cannot encode value %T", v)
	}

	for _, f := range m.Functions {
		ef := encodedFunction{Name: f.Name}
		if f.ReturnType != nil {
			h := reg.GetOrCreate(f.ReturnType)
			ef.ReturnType = &h
		}
		for _, p := range f.Params {
			ef.Params = append(ef.Params, encodedParam{ID: p.ID(), Type: reg.GetOrCreate(p.Type())})
		}
		for _, inst := range f.Block.Instructions {
			ei := encodedInstruction{
				Op:   inst.Op,
				ID:   inst.Result.ID(),
				Type: reg.GetOrCreate(inst.Result.Type()),
			}
			if inst.Generic != nil {
				h := reg.GetOrCreate(inst.Generic)
				ei.Generic = &h
			}
			for _, op := range inst.Operands {
				r, err := ref(op.Value())
				if err != nil {
					return nil, fmt.Errorf("function %s: %w", f.Name, err)
				}
				ei.Operands = append(ei.Operands, r)
			}
			ef.Instructions = append(ef.Instructions, ei)
		}
		if ret := f.Block.Terminator; ret != nil {
			ef.HasReturn = true
			if ret.Value != nil {
				r, err := ref(ret.Value.Value())
				if err != nil {
					return nil, fmt.Errorf("function %s: %w", f.Name, err)
				}
				ef.ReturnValue = &r
			}
		}
		out.Functions = append(out.Functions, ef)
	}

	for _, t := range reg.GetTypes() {
		out.Types = append(out.Types, encodeType(t))
	}
	return msgpack.Marshal(&out)
}

// Decode rebuilds a module written by Encode.
func Decode(data []byte) (*Module, error) {
	var in encodedModule
	if err := msgpack.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("ir: decode: %w", err)
	}
	if in.Schema != encodingSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, in.Schema, encodingSchemaVersion)
	}

	types := make([]TypeInner, len(in.Types))
	for i, et := range in.Types {
		types[i] = decodeType(et)
	}
	typeAt := func(h TypeHandle) (TypeInner, error) {
		if int(h) >= len(types) {
			return nil, fmt.Errorf("ir: decode: type handle %d out of range", h)
		}
		return types[h], nil
	}

	m := &Module{}
	for i, ec := range in.Constants {
		t, err := typeAt(ec.Type)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		m.Constants = append(m.Constants, NewConstant(t, ec.Bits))
	}

	for _, ef := range in.Functions {
		f, err := decodeFunction(ef, m.Constants, typeAt)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", ef.Name, err)
		}
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

func decodeFunction(ef encodedFunction, constants []*Constant, typeAt func(TypeHandle) (TypeInner, error)) (*Function, error) {
	var ret TypeInner
	if ef.ReturnType != nil {
		t, err := typeAt(*ef.ReturnType)
		if err != nil {
			return nil, err
		}
		ret = t
	}
	f := NewFunction(ef.Name, ret)
	values := make(map[ValueID]Value)

	resolve := func(r encodedRef) (Value, error) {
		if r.Kind == refConstant {
			if int(r.Index) >= len(constants) {
				return nil, fmt.Errorf("ir: decode: constant %d out of range", r.Index)
			}
			return constants[r.Index], nil
		}
		v, ok := values[ValueID(r.Index)]
		if !ok {
			return nil, fmt.Errorf("ir: decode: value %s used before definition", ValueID(r.Index))
		}
		return v, nil
	}

	for _, ep := range ef.Params {
		t, err := typeAt(ep.Type)
		if err != nil {
			return nil, err
		}
		p := &FunctionParam{id: ep.ID, typ: t}
		f.Params = append(f.Params, p)
		values[ep.ID] = p
		f.bumpID(ep.ID)
	}

	for _, ei := range ef.Instructions {
		t, err := typeAt(ei.Type)
		if err != nil {
			return nil, err
		}
		inst := &Instruction{Op: ei.Op}
		if ei.Generic != nil {
			if inst.Generic, err = typeAt(*ei.Generic); err != nil {
				return nil, err
			}
		}
		for _, r := range ei.Operands {
			v, err := resolve(r)
			if err != nil {
				return nil, err
			}
			inst.Operands = append(inst.Operands, Use(v))
		}
		inst.Result = &InstructionResult{id: ei.ID, typ: t, inst: inst}
		f.Block.Instructions = append(f.Block.Instructions, inst)
		values[ei.ID] = inst.Result
		f.bumpID(ei.ID)
	}

	if ef.HasReturn {
		if ef.ReturnValue == nil {
			f.SetReturn(nil)
		} else {
			v, err := resolve(*ef.ReturnValue)
			if err != nil {
				return nil, err
			}
			f.SetReturn(v)
		}
	}
	return f, nil
}

// bumpID keeps AllocID ahead of ids restored by Decode.
func (f *Function) bumpID(id ValueID) {
	if id >= f.nextID {
		f.nextID = id + 1
	}
}

func encodeType(t TypeInner) encodedType {
	switch t := t.(type) {
	case ScalarType:
		return encodedType{Kind: uint8(t.Kind), Width: t.Width}
	case VectorType:
		return encodedType{Kind: uint8(t.Scalar.Kind), Width: t.Scalar.Width, Size: uint8(t.Size)}
	}
	return encodedType{}
}

func decodeType(et encodedType) TypeInner {
	s := ScalarType{Kind: ScalarKind(et.Kind), Width: et.Width}
	if et.Size == 0 {
		return s
	}
	return VectorType{Size: VectorSize(et.Size), Scalar: s}
}
