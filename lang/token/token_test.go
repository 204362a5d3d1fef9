package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d missing string", tok)
	}
}

func TestLookup(t *testing.T) {
	require.Equal(t, LET, Lookup("let"))
	require.Equal(t, FUNC, Lookup("func"))
	require.Equal(t, IDENT, Lookup("notakeyword"))
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}

func TestAutoSemiAfter(t *testing.T) {
	require.True(t, AutoSemiAfter(IDENT))
	require.True(t, AutoSemiAfter(RPAREN))
	require.False(t, AutoSemiAfter(PLUS))
	require.False(t, AutoSemiAfter(IF))
}

func TestLiteral(t *testing.T) {
	require.Equal(t, "+", PLUS.Literal())
	require.Equal(t, "", IDENT.Literal())
	require.Equal(t, "", INT.Literal())
}
