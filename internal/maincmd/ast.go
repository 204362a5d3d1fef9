package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vela/lang/ast"
)

// ASTFile parses path just through the parser and emits its AST as a
// Graphviz dot graph at ast.dot (`vela --ast <file>`).
func ASTFile(stdio mainer.Stdio, path string) error {
	block, _, err := parseFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	f, err := os.Create("ast.dot")
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	defer f.Close()

	ast.PrintDot(f, block)
	return nil
}
