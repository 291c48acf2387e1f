package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keurnel/m6809asm/cmd/cli/cmd/m6809"
)

var m6809Cmd = &cobra.Command{
	Use:     "m6809",
	GroupID: "arch",
	Short:   "Motorola 6809 assembler",
	Long:    `Functions related to the Motorola 6809 two-pass assembler.`,
}

func init() {
	m6809Cmd.AddCommand(m6809.AssembleFileCmd)
}
