// Command l is the L language CLI: lexer/parser/analyzer/compiler/VM
// pipeline driver (cmd/l/cmd mirrors go-dws's cmd/dwscript/cmd layout).
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-l/cmd/l/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
