// cmd/canonry/main.go
package main

import (
	cmd "github.com/mwiater/canonry/internal/commands"
)

// main starts the canonry CLI application by delegating to the
// cobra root command defined in the commands package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
