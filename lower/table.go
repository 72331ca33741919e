package lower

import (
	"fmt"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/spirv"
)

// Value is a module-scope record of the value table: a SPIR-V constant with
// its declared type, its flattened component words and, when the type is
// supported, the IR constant it lowers to.
type Value struct {
	ID         spirv.ID
	Type       spirv.Type
	Components []uint32
	IR         *ir.Constant

	err error // why the constant has no IR form
}

// ValueTable is the module-wide id table. It is built once from the
// type/constant section and only read afterwards, so any number of
// function lowerings may share it.
type ValueTable struct {
	module    *spirv.Module
	values    map[spirv.ID]*Value
	constants []*ir.Constant
}

// NewValueTable builds the value table of a module. Constants whose type
// cannot be lowered are kept with their error, which surfaces only when an
// instruction uses them.
func NewValueTable(m *spirv.Module) *ValueTable {
	t := &ValueTable{
		module: m,
		values: make(map[spirv.ID]*Value, len(m.Constants)),
	}
	for _, id := range m.ConstantIDs() {
		v := t.buildValue(id)
		t.values[id] = v
		if v.IR != nil {
			t.constants = append(t.constants, v.IR)
		}
	}
	return t
}

func (t *ValueTable) buildValue(id spirv.ID) *Value {
	c := t.module.Constants[id]
	v := &Value{ID: id}

	typ, ok := t.module.Types[c.Type]
	if !ok {
		v.err = fmt.Errorf("%w: constant %s has undeclared type %s", ErrUnsupportedType, id, c.Type)
		return v
	}
	v.Type = typ

	components, err := t.flatten(c)
	if err != nil {
		v.err = fmt.Errorf("constant %s: %w", id, err)
		return v
	}
	v.Components = components

	irType, err := DecodeType(typ)
	if err != nil {
		v.err = fmt.Errorf("constant %s: %w", id, err)
		return v
	}
	if got, want := len(components), int(ir.Components(irType)); got != want {
		v.err = fmt.Errorf("%w: constant %s has %d components, type %s has %d",
			ErrShapeMismatch, id, got, irType, want)
		return v
	}
	v.IR = ir.NewConstant(irType, components)
	return v
}

// flatten returns the component words of a constant. Composite
// constituents must be scalar constants.
func (t *ValueTable) flatten(c spirv.Constant) ([]uint32, error) {
	if !c.IsComposite() {
		return c.Words, nil
	}
	words := make([]uint32, 0, len(c.Constituents))
	for _, cid := range c.Constituents {
		part, ok := t.module.Constants[cid]
		if !ok {
			return nil, fmt.Errorf("%w: constituent %s is not a constant", ErrUnresolvedOperand, cid)
		}
		if part.IsComposite() {
			return nil, fmt.Errorf("%w: nested composite constituent %s", ErrUnsupportedType, cid)
		}
		words = append(words, part.Words...)
	}
	return words, nil
}

// Lookup returns the record of a constant id.
func (t *ValueTable) Lookup(id spirv.ID) (*Value, bool) {
	v, ok := t.values[id]
	return v, ok
}

// Constants returns the IR constants of the module in id order.
func (t *ValueTable) Constants() []*ir.Constant {
	return t.constants
}

// Module returns the module the table was built from.
func (t *ValueTable) Module() *spirv.Module {
	return t.module
}

// ResultType decodes the type declared by a result-type id.
func (t *ValueTable) ResultType(id spirv.ID) (ir.TypeInner, error) {
	typ, ok := t.module.Types[id]
	if !ok {
		return nil, fmt.Errorf("%w: result type %s is not declared", ErrUnsupportedType, id)
	}
	return DecodeType(typ)
}

// scope is one function's view of the value table: the module constants
// plus the parameters and results defined so far in that function.
type scope struct {
	table  *ValueTable
	values map[spirv.ID]ir.Value
}

func newScope(table *ValueTable) *scope {
	return &scope{
		table:  table,
		values: make(map[spirv.ID]ir.Value, 32),
	}
}

// resolve returns the value an operand id refers to, with the type it was
// defined with.
func (s *scope) resolve(id spirv.ID) (ir.Value, error) {
	if v, ok := s.values[id]; ok {
		return v, nil
	}
	if c, ok := s.table.values[id]; ok {
		if c.err != nil {
			return nil, c.err
		}
		return c.IR, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedOperand, id)
}

func (s *scope) define(id spirv.ID, v ir.Value) {
	s.values[id] = v
}
