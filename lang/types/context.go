package types

import "github.com/dolthub/swiss"

// Context is the canonicalising store for Datatype, owning all datatype
// storage for one compilation (spec §4.1). Create one with NewContext; the
// zero value has no tables and is not usable.
type Context struct {
	// primitives interns primitive datatypes by name.
	primitives *swiss.Map[string, *Datatype]
	// compound hash-conses array/option/class datatypes by structural key.
	compound *swiss.Map[string, *Datatype]

	nullT, voidT *Datatype
	strT         *Datatype
}

// NewContext creates an empty Context with its primitive types pre-interned.
func NewContext() *Context {
	c := &Context{
		primitives: swiss.NewMap[string, *Datatype](16),
		compound:   swiss.NewMap[string, *Datatype](64),
	}
	for _, v := range []Variant{Null, Bool, Int, Float, Char, Void, Generic} {
		c.primitives.Put(v.String(), &Datatype{Variant: v})
	}
	nt, _ := c.primitives.Get(Null.String())
	vt, _ := c.primitives.Get(Void.String())
	c.nullT, c.voidT = nt, vt
	c.strT = c.FindOrCreate(&Datatype{Variant: Array, Elem: c.Intern("char")})
	return c
}

// Intern returns the canonical Datatype registered under name. For a
// primitive name it returns the pre-registered singleton; for any other
// name it creates (or returns the existing) class(id=djb2(name)) datatype.
func (c *Context) Intern(name string) *Datatype {
	if dt, ok := c.primitives.Get(name); ok {
		return dt
	}
	if name == "str" {
		return c.strT
	}
	key := (&Datatype{Variant: Class, ClassID: Djb2(name)}).key()
	if dt, ok := c.compound.Get(key); ok {
		return dt
	}
	dt := &Datatype{Variant: Class, ClassID: Djb2(name), ClassName: name}
	c.compound.Put(key, dt)
	return dt
}

// FindOrCreate returns the existing canonical pointer for a compound
// datatype (array/option) matching dt structurally, creating and
// registering a fresh copy if none exists yet (spec §4.1).
func (c *Context) FindOrCreate(dt *Datatype) *Datatype {
	switch dt.Variant {
	case Array, Option:
		key := dt.key()
		if existing, ok := c.compound.Get(key); ok {
			return existing
		}
		fresh := &Datatype{Variant: dt.Variant, Elem: dt.Elem}
		c.compound.Put(key, fresh)
		return fresh
	default:
		return c.Intern(dt.String())
	}
}

// Array returns the canonical array(elem) datatype.
func (c *Context) Array(elem *Datatype) *Datatype {
	return c.FindOrCreate(&Datatype{Variant: Array, Elem: elem})
}

// OptionOf returns the canonical option(elem) datatype.
func (c *Context) OptionOf(elem *Datatype) *Datatype {
	return c.FindOrCreate(&Datatype{Variant: Option, Elem: elem})
}

// NullType returns the distinguished null singleton.
func (c *Context) NullType() *Datatype { return c.nullT }

// VoidType returns the distinguished void singleton.
func (c *Context) VoidType() *Datatype { return c.voidT }

// StrType returns the canonical str (== array(char)) datatype.
func (c *Context) StrType() *Datatype { return c.strT }
