// Package types implements the type context of spec §4.1: a canonicalising
// store for Datatype values so that, after interning, pointer equality of
// two Datatypes implies (and is implied by) their structural equality
// (spec §8 property 3).
package types

import "fmt"

// Variant tags a Datatype's shape.
type Variant uint8

const (
	Null Variant = iota
	Bool
	Int
	Float
	Char
	Void
	Generic
	Class
	Array
	Option
)

func (v Variant) String() string {
	switch v {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Char:
		return "char"
	case Void:
		return "void"
	case Generic:
		return "generic"
	case Class:
		return "class"
	case Array:
		return "array"
	case Option:
		return "option"
	default:
		return "?"
	}
}

// Datatype is a tagged value describing a vela runtime type (spec §3). Once
// obtained from a Context, a Datatype pointer is canonical: two Datatype
// pointers are == iff Match reports them structurally equal.
type Datatype struct {
	Variant Variant

	// ClassID is djb2(classname), set only when Variant == Class.
	ClassID uint64
	// ClassName is kept alongside ClassID for diagnostics.
	ClassName string

	// Elem is the element type, set only when Variant == Array or Option.
	Elem *Datatype
}

// Djb2 is the classname hash used as Datatype.ClassID (spec §3).
func Djb2(name string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(name); i++ {
		h = h*33 + uint64(name[i])
	}
	return h
}

// IsPrimitive reports whether d is one of the non-compound, non-class
// variants.
func (d *Datatype) IsPrimitive() bool {
	switch d.Variant {
	case Null, Bool, Int, Float, Char, Void, Generic:
		return true
	default:
		return false
	}
}

// IsStr reports whether d is exactly array(char), vela's string type
// (spec §3 invariant a).
func (d *Datatype) IsStr() bool {
	return d.Variant == Array && d.Elem != nil && d.Elem.Variant == Char
}

func (d *Datatype) String() string {
	switch d.Variant {
	case Array:
		if d.IsStr() {
			return "str"
		}
		return "[" + d.Elem.String() + "]"
	case Option:
		return d.Elem.String() + "?"
	case Class:
		return d.ClassName
	default:
		return d.Variant.String()
	}
}

// Match reports structural equality between a and b: tag and class id equal,
// subtypes recursively equal (spec §4.1).
func Match(a, b *Datatype) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Variant != b.Variant {
		return false
	}
	switch a.Variant {
	case Class:
		return a.ClassID == b.ClassID
	case Array, Option:
		return Match(a.Elem, b.Elem)
	default:
		return true
	}
}

// key returns a comparable side-table key for the compound variants, used
// by Context.FindOrCreate and Context.Intern to avoid allocating duplicate
// canonical pointers.
func (d *Datatype) key() string {
	switch d.Variant {
	case Array:
		return fmt.Sprintf("[%s]", d.Elem.key())
	case Option:
		return fmt.Sprintf("?%s", d.Elem.key())
	case Class:
		return fmt.Sprintf("#%d", d.ClassID)
	default:
		return d.Variant.String()
	}
}
