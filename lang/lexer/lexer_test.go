package lexer

import (
	"testing"

	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/token"
	"github.com/stretchr/testify/require"
)

func kinds(toks []TokenAndValue) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tv := range toks {
		out[i] = tv.Token
	}
	return out
}

func TestScanBasicProgram(t *testing.T) {
	var errs diag.List
	src := `let mut x = 1 + 2
println(x)`
	toks := Scan("t.vela", []byte(src), &errs)
	require.False(t, errs.HasErrors(), errs.String())
	require.Equal(t, []token.Token{
		token.LET, token.MUT, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.SEMI,
		token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.SEMI,
		token.EOF,
	}, kinds(toks))
}

func TestScanCommentsSkipped(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte("x # trailing comment\ny"), &errs)
	require.False(t, errs.HasErrors())
	require.Equal(t, []token.Token{token.IDENT, token.SEMI, token.IDENT, token.SEMI, token.EOF}, kinds(toks))
}

func TestScanStringEscapes(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte(`"a\nb\t\"c\""`), &errs)
	require.False(t, errs.HasErrors(), errs.String())
	require.Len(t, toks, 3)
	require.Equal(t, token.STRING, toks[0].Token)
	require.Equal(t, "a\nb\t\"c\"", toks[0].Value.Str)
}

func TestScanUnterminatedString(t *testing.T) {
	var errs diag.List
	Scan("t.vela", []byte(`"abc`), &errs)
	require.True(t, errs.HasErrors())
	require.Equal(t, diag.Lex, errs.Errors()[0].Kind)
}

func TestScanCharLiteral(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte(`'a'`), &errs)
	require.False(t, errs.HasErrors())
	require.Equal(t, token.CHAR, toks[0].Token)
	require.Equal(t, 'a', toks[0].Value.Char)
}

func TestScanNumbers(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte(`1 1.5 1e3 0x1F`), &errs)
	require.False(t, errs.HasErrors(), errs.String())
	require.Equal(t, token.INT, toks[0].Token)
	require.Equal(t, int64(1), toks[0].Value.Int)
	require.Equal(t, token.FLOAT, toks[1].Token)
	require.InDelta(t, 1.5, toks[1].Value.Float, 0.0001)
	require.Equal(t, token.FLOAT, toks[2].Token)
	require.InDelta(t, 1000.0, toks[2].Value.Float, 0.0001)
	require.Equal(t, token.INT, toks[3].Token)
	require.Equal(t, int64(31), toks[3].Value.Int)
}

func TestScanMultiCharPunctuation(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte("a -> b && c || d == e != f <= g >= h << i >> j"), &errs)
	require.False(t, errs.HasErrors())
	want := []token.Token{
		token.IDENT, token.ARROW, token.IDENT, token.ANDAND, token.IDENT, token.OROR,
		token.IDENT, token.EQL, token.IDENT, token.NEQ, token.IDENT, token.LE, token.IDENT,
		token.GE, token.IDENT, token.LTLT, token.IDENT, token.GTGT, token.IDENT, token.SEMI, token.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestScanAutoSemicolonNotInsertedAfterOperator(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte("x +\ny"), &errs)
	require.False(t, errs.HasErrors())
	require.Equal(t, []token.Token{token.IDENT, token.PLUS, token.IDENT, token.SEMI, token.EOF}, kinds(toks))
}

func TestScanIllegalCharacter(t *testing.T) {
	var errs diag.List
	Scan("t.vela", []byte("$"), &errs)
	require.True(t, errs.HasErrors())
}

func TestScanPositionsTrackLineAndCol(t *testing.T) {
	var errs diag.List
	toks := Scan("t.vela", []byte("ab\ncd"), &errs)
	require.False(t, errs.HasErrors())
	line, col := toks[0].Value.Pos.LineCol()
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
	// "cd" starts on line 2
	var cdTok TokenAndValue
	for _, tv := range toks {
		if tv.Token == token.IDENT && tv.Value.Raw == "cd" {
			cdTok = tv
		}
	}
	line2, _ := cdTok.Value.Pos.LineCol()
	require.Equal(t, 2, line2)
}
