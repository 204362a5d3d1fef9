package compiler

import (
	"github.com/mna/vela/lang/ast"
	"github.com/mna/vela/lang/token"
)

// foldConstants recursively folds literal-literal Binary subexpressions
// into a single literal, bottom-up, so integer arithmetic overflow wraps
// using the host's two's-complement semantics before any further lowering
// occurs (spec §4.4.3). Assignment (Op == token.EQ) is never folded.
func foldConstants(e ast.Expr) ast.Expr {
	b, ok := e.(*ast.Binary)
	if !ok {
		return e
	}
	b.Left = foldConstants(b.Left)
	b.Right = foldConstants(b.Right)
	if b.Op == token.EQ {
		return b
	}

	if li, lok := b.Left.(*ast.Int); lok {
		if ri, rok := b.Right.(*ast.Int); rok {
			if v, isBool, ok := foldInt(b.Op, li.Val, ri.Val); ok {
				if isBool {
					return &ast.Bool{ValPos: b.Pos(), Val: v != 0}
				}
				return &ast.Int{ValPos: b.Pos(), Val: v}
			}
		}
	}

	if lf, lok := b.Left.(*ast.Float); lok {
		if rf, rok := b.Right.(*ast.Float); rok {
			if v, isBool, ok := foldFloat(b.Op, lf.Val, rf.Val); ok {
				if isBool {
					return &ast.Bool{ValPos: b.Pos(), Val: v != 0}
				}
				return &ast.Float{ValPos: b.Pos(), Val: v}
			}
		}
	}
	return b
}

// foldInt evaluates an int-int binary op at compile time. vela's runtime
// int is the 32-bit INT32_VAL encoding (spec §3, §8's fuzz property), so
// folding wraps at 32 bits, matching Go's native int32 overflow behavior
// exactly (the same arithmetic the unfolded IADD/ISUB/... opcodes perform
// at runtime). The third result is false when op has no constant-int form
// (e.g. a div/mod by zero, which must propagate to the runtime trap rather
// than fold away).
func foldInt(op token.Token, a, b int64) (val int64, isBool, ok bool) {
	x, y := int32(a), int32(b)
	ux, uy := uint32(x), uint32(y)
	switch op {
	case token.PLUS:
		return int64(int32(ux + uy)), false, true
	case token.MINUS:
		return int64(int32(ux - uy)), false, true
	case token.STAR:
		return int64(int32(ux * uy)), false, true
	case token.SLASH:
		if y == 0 {
			return 0, false, false
		}
		return int64(x / y), false, true
	case token.PERCENT:
		if y == 0 {
			return 0, false, false
		}
		return int64(x % y), false, true
	case token.LTLT:
		return int64(int32(ux << (uy & 31))), false, true
	case token.GTGT:
		return int64(int32(ux >> (uy & 31))), false, true
	case token.AMPERSAND:
		return int64(x & y), false, true
	case token.PIPE:
		return int64(x | y), false, true
	case token.CIRCUMFLEX:
		return int64(x ^ y), false, true
	case token.EQL:
		return b2i(x == y), true, true
	case token.NEQ:
		return b2i(x != y), true, true
	case token.LT:
		return b2i(x < y), true, true
	case token.GT:
		return b2i(x > y), true, true
	case token.LE:
		return b2i(x <= y), true, true
	case token.GE:
		return b2i(x >= y), true, true
	default:
		return 0, false, false
	}
}

// foldFloat evaluates a float-float binary op at compile time. Division by
// zero is deliberately not special-cased: it folds to the IEEE result
// (±Inf or NaN), matching the unfolded runtime path exactly (spec §4.4.3).
func foldFloat(op token.Token, a, b float64) (val float64, isBool, ok bool) {
	switch op {
	case token.PLUS:
		return a + b, false, true
	case token.MINUS:
		return a - b, false, true
	case token.STAR:
		return a * b, false, true
	case token.SLASH:
		return a / b, false, true
	case token.EQL:
		return b2f(a == b), true, true
	case token.NEQ:
		return b2f(a != b), true, true
	case token.LT:
		return b2f(a < b), true, true
	case token.GT:
		return b2f(a > b), true, true
	case token.LE:
		return b2f(a <= b), true, true
	case token.GE:
		return b2f(a >= b), true, true
	default:
		return 0, false, false
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
