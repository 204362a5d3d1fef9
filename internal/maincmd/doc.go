package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vela/lang/ast"
)

// DocFile parses path just through the parser and emits a signature index
// of its top-level functions and types as doc.html (`vela --doc <file>`).
func DocFile(stdio mainer.Stdio, path string) error {
	block, _, err := parseFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	f, err := os.Create("doc.html")
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	defer f.Close()

	ast.PrintDoc(f, block)
	return nil
}
