// Package grammar carries no executable logic of its own: grammar.ebnf is
// the syntax of §4.2/§6 transcribed into EBNF, checked by this test the same
// way the teacher checks its own grammar files: it must parse as EBNF and
// verify from the Chunk start production (every production defined and
// reachable). The test does not run lang/parser, so it does not check the
// grammar against what the parser accepts.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestEBNF(t *testing.T) {
	f, err := os.Open("grammar.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("grammar.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Chunk"); err != nil {
		t.Fatal(err)
	}
}
