package scope

import (
	"github.com/dolthub/swiss"
)

// AnnotationFlags is a bitset of pending annotations consumed by the next
// declaration in a scope (spec §4.3).
type AnnotationFlags uint8

const (
	FlagGetter AnnotationFlags = 1 << iota
	FlagSetter
	FlagUnused
)

// Scope is one lexical scope: a frame of local names, a parallel table of
// class names, and a link to its parent. A "virtual" scope (push_virtual)
// does not advance the closure-depth counter, and shares its parent's
// address counter, so that if/while bodies address their locals within the
// enclosing function's frame (spec §4.3).
type Scope struct {
	Parent *Scope

	symbols *swiss.Map[string, *Symbol]
	classes *swiss.Map[string, *Symbol]

	Children []*Scope

	// NextAddress is the next free local-slot address to hand out in this
	// scope's counting frame.
	NextAddress int32

	AnnotationFlags AnnotationFlags

	// Virtual scopes do not constitute a closure boundary (see
	// LookupWithDepth).
	Virtual bool
}

// Push creates a new counting child scope.
func Push(parent *Scope) *Scope {
	s := &Scope{
		Parent:      parent,
		symbols:     swiss.NewMap[string, *Symbol](8),
		classes:     swiss.NewMap[string, *Symbol](4),
		NextAddress: 0,
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// PushVirtual creates a new non-counting child scope that shares its
// parent's address counter (spec §4.3): used for if/while bodies so nested
// locals continue the parent's frame instead of starting a new one.
func PushVirtual(parent *Scope) *Scope {
	s := &Scope{
		Parent:      parent,
		symbols:     swiss.NewMap[string, *Symbol](8),
		classes:     swiss.NewMap[string, *Symbol](4),
		NextAddress: parent.NextAddress,
		Virtual:     true,
	}
	parent.Children = append(parent.Children, s)
	return s
}

// Pop propagates a virtual scope's advanced address counter back up to its
// parent; a counting scope's locals are no longer reachable once popped, so
// its counter is discarded.
func (s *Scope) Pop() {
	if s.Virtual && s.Parent != nil {
		s.Parent.NextAddress = s.NextAddress
	}
}

// Declare registers sym under name in s's own symbol table. It returns
// false if name is already bound directly in s (the caller must turn this
// into a redefinition diagnostic).
func (s *Scope) Declare(name string, sym *Symbol) bool {
	if _, ok := s.symbols.Get(name); ok {
		return false
	}
	sym.Name = name
	s.symbols.Put(name, sym)
	return true
}

// DeclareClass registers sym under name in s's class-name table.
func (s *Scope) DeclareClass(name string, sym *Symbol) bool {
	if _, ok := s.classes.Get(name); ok {
		return false
	}
	s.classes.Put(name, sym)
	return true
}

// Lookup walks the scope chain from s outward and returns the first symbol
// bound to name, or nil.
func (s *Scope) Lookup(name string) *Symbol {
	sym, _ := s.LookupWithDepth(name)
	return sym
}

// LookupWithDepth walks the scope chain from s outward, returning the
// symbol bound to name along with the closure depth: the number of
// non-virtual scope boundaries crossed to reach its binding (spec §4.3).
func (s *Scope) LookupWithDepth(name string) (*Symbol, int) {
	depth := 0
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.symbols.Get(name); ok {
			return sym, depth
		}
		if !cur.Virtual {
			depth++
		}
	}
	return nil, -1
}

// FindClassByID walks the scope chain searching each scope's class table
// for a class whose symbol's type carries the given djb2 class id.
func (s *Scope) FindClassByID(id uint64, matches func(*Symbol) bool) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		var found *Symbol
		cur.classes.Iter(func(_ string, sym *Symbol) bool {
			if sym.Type.ClassID == id && matches(sym) {
				found = sym
				return true // stop iteration
			}
			return false
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// LookupClass walks the scope chain searching each scope's class-name map
// by name.
func (s *Scope) LookupClass(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.classes.Get(name); ok {
			return sym
		}
	}
	return nil
}

// ConsumeAnnotations returns and clears the pending annotation flags, for
// the declaration that immediately follows an @Getter/@Setter/@Unused.
func (s *Scope) ConsumeAnnotations() AnnotationFlags {
	f := s.AnnotationFlags
	s.AnnotationFlags = 0
	return f
}
