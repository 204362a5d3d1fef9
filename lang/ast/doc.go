package ast

import (
	"fmt"
	"html"
	"io"
)

// PrintDoc renders the top-level declarations of block (functions and
// classes, with their signatures) as a minimal standalone HTML page, for
// the CLI's --doc mode (spec §6). Like PrintDot this is a debugging aid,
// not a documentation-comment system: vela has no doc-comment syntax, so
// the page is a signature index, not prose.
func PrintDoc(w io.Writer, block *Block) {
	fmt.Fprintln(w, "<!DOCTYPE html>")
	fmt.Fprintln(w, `<html><head><meta charset="utf-8"><title>vela doc</title></head><body>`)
	fmt.Fprintln(w, "<h1>vela program</h1>")

	fmt.Fprintln(w, "<h2>functions</h2><ul>")
	for _, s := range block.Stmts {
		if fn, ok := s.(*DeclFunc); ok {
			fmt.Fprintf(w, "<li><code>%s</code></li>\n", html.EscapeString(funcSignature(fn)))
		}
	}
	fmt.Fprintln(w, "</ul>")

	fmt.Fprintln(w, "<h2>types</h2><ul>")
	for _, s := range block.Stmts {
		if cl, ok := s.(*Class); ok {
			fmt.Fprintf(w, "<li><code>%s</code><ul>\n", html.EscapeString(classSignature(cl)))
			for _, m := range cl.Body {
				switch m := m.(type) {
				case *DeclVar:
					fmt.Fprintf(w, "<li><code>%s</code></li>\n", html.EscapeString(m.Name))
				case *DeclFunc:
					fmt.Fprintf(w, "<li><code>%s</code></li>\n", html.EscapeString(funcSignature(m)))
				}
			}
			fmt.Fprintln(w, "</ul></li>")
		}
	}
	fmt.Fprintln(w, "</ul>")

	fmt.Fprintln(w, "</body></html>")
}

func funcSignature(fn *DeclFunc) string {
	sig := "func " + fn.Name + "("
	for i, p := range fn.Formals {
		if i > 0 {
			sig += ", "
		}
		sig += p.Name + ":" + typeExprString(p.Type)
	}
	sig += ")"
	if fn.RetType != nil {
		sig += " -> " + typeExprString(fn.RetType)
	}
	return sig
}

func classSignature(cl *Class) string {
	sig := "type " + cl.Name + "("
	for i, p := range cl.Formals {
		if i > 0 {
			sig += ", "
		}
		sig += p.Name + ":" + typeExprString(p.Type)
	}
	sig += ")"
	return sig
}

func typeExprString(t *TypeExpr) string {
	if t == nil {
		return "?"
	}
	if t.Array != nil {
		return "[" + typeExprString(t.Array) + "]"
	}
	if t.Option != nil {
		return typeExprString(t.Option) + "?"
	}
	return t.Name
}
