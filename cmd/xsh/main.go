// Command xsh evaluates xsh expressions and renders xsh templates.
package main

import (
	"os"

	"github.com/fyrsmithlabs/xsh/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
