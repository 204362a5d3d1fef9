package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPosLineCol(t *testing.T) {
	p := MakePos(12, 34)
	line, col := p.LineCol()
	require.Equal(t, 12, line)
	require.Equal(t, 34, col)
	require.True(t, p.IsValid())
	require.False(t, NoPos.IsValid())
}

func TestPositionString(t *testing.T) {
	require.Equal(t, "test.vela:3:5", Position{Filename: "test.vela", Line: 3, Col: 5}.String())
	require.Equal(t, "3:5", Position{Line: 3, Col: 5}.String())
}

func TestFileSetPosition(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddFile("a.vela", 10)
	require.Same(t, f, fs.File())
	require.Equal(t, "a.vela", f.Name())

	pos := MakePos(2, 7)
	require.Equal(t, Position{Filename: "a.vela", Line: 2, Col: 7}, f.Position(pos))
}
