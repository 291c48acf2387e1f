package main

import (
	"github.com/keurnel/m6809asm/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
