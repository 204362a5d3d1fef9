package bytecode

// ObjKind discriminates the variants of a heap object (spec §3).
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjArray
	ObjClass
)

// Obj is a heap cell. next threads every live object into the VM's
// freelist so the collector can walk the whole heap during sweep without a
// separate allocation registry.
type Obj struct {
	Kind ObjKind
	Mark bool
	next *Obj

	str   []byte
	elems []Value
}

// NewString allocates a String object holding a copy of s's bytes.
func NewString(s string) *Obj {
	return &Obj{Kind: ObjString, str: []byte(s)}
}

// NewArray allocates an Array object holding elems (taken by reference,
// not copied: the caller must not reuse the slice).
func NewArray(elems []Value) *Obj {
	return &Obj{Kind: ObjArray, elems: elems}
}

// NewClass allocates a Class object with nfields zero-valued (NullVal)
// fields, later populated by SETFIELD.
func NewClass(nfields int) *Obj {
	fields := make([]Value, nfields)
	for i := range fields {
		fields[i] = NullVal
	}
	return &Obj{Kind: ObjClass, elems: fields}
}

// Str returns the string payload; valid only when Kind == ObjString.
func (o *Obj) Str() string { return string(o.str) }

// Bytes returns the raw string payload for in-place mutation by opcodes
// such as APPEND; valid only when Kind == ObjString.
func (o *Obj) Bytes() []byte { return o.str }

// SetBytes replaces the string payload in place.
func (o *Obj) SetBytes(b []byte) { o.str = b }

// Elems returns the element/field slice; valid when Kind is ObjArray or
// ObjClass.
func (o *Obj) Elems() []Value { return o.elems }

// SetElems replaces the element/field slice in place (used by APPEND/CONS
// to grow an array without reallocating the Obj itself).
func (o *Obj) SetElems(elems []Value) { o.elems = elems }

// Len returns the logical length of a String or Array object.
func (o *Obj) Len() int {
	switch o.Kind {
	case ObjString:
		return len(o.str)
	default:
		return len(o.elems)
	}
}

// Next returns the next heap object in the allocator's freelist.
func (o *Obj) Next() *Obj { return o.next }

// SetNext links o to the next object in the allocator's freelist.
func (o *Obj) SetNext(n *Obj) { o.next = n }
