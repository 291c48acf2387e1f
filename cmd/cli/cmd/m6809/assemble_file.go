// Package m6809 wires the mc6809 assembler core and the container writers
// into a cobra subcommand: resolve the input path, run the pipeline, and
// report results through the command's streams.
package m6809

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keurnel/m6809asm/internal/container"
	"github.com/keurnel/m6809asm/internal/mc6809"
)

var (
	flagPrint   bool
	flagSymbols bool
	flagToBin   string
	flagToCas   string
	flagToDsk   string
	flagName    string
	flagAppend  bool
)

// AssembleFileCmd is the "assemble" subcommand: a positional input file
// plus --print, --symbols, --to_bin, --to_cas, --to_dsk, --name and
// --append. It uses RunE so a cobra-level non-zero exit code follows any
// assembly error.
var AssembleFileCmd = &cobra.Command{
	Use:     "assemble <file>",
	GroupID: "file-operations",
	Short:   "Assemble a 6809 assembly source file.",
	Long:    `Assemble a 6809 assembly source file into a machine-code image, with optional listing, symbol table, and container output.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssembleFile(cmd, args[0])
	},
}

func init() {
	flags := AssembleFileCmd.Flags()
	flags.BoolVar(&flagPrint, "print", false, "print the assembly listing to stdout")
	flags.BoolVar(&flagSymbols, "symbols", false, "print the symbol table to stdout")
	flags.StringVar(&flagToBin, "to_bin", "", "write the raw binary image to PATH")
	flags.StringVar(&flagToCas, "to_cas", "", "write a cassette (.CAS) image to PATH")
	flags.StringVar(&flagToDsk, "to_dsk", "", "write a disk (.DSK) image to PATH")
	flags.StringVar(&flagName, "name", "", "program name recorded in container metadata (overrides NAM)")
	flags.BoolVar(&flagAppend, "append", false, "append to an existing --to_cas/--to_dsk container instead of refusing it")
}

func runAssembleFile(cmd *cobra.Command, path string) error {
	fullPath, err := resolveFilePath(path)
	if err != nil {
		return err
	}

	asm := mc6809.NewAssembler()
	result, err := asm.AssembleFile(fullPath)
	if err != nil {
		reportDiagnostics(cmd, asm)
		return fmt.Errorf("assembly failed: %w", err)
	}
	reportDiagnostics(cmd, asm)

	if flagPrint {
		for _, rec := range result.Listing {
			fmt.Fprintln(cmd.OutOrStdout(), rec.String())
		}
	}

	if flagSymbols {
		for _, sym := range result.Symbols.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = $%04X\n", sym.Name, sym.Value)
		}
	}

	programName := flagName
	if programName == "" {
		programName = asm.ProgramName()
	}
	if programName == "" {
		programName = "PROGRAM"
	}

	if flagToBin != "" {
		if err := writeBinary(flagToBin, result.Image.Bytes); err != nil {
			return err
		}
	}

	if flagToCas != "" {
		if err := writeCassette(flagToCas, programName, result.Image, flagAppend); err != nil {
			return err
		}
	}

	if flagToDsk != "" {
		if err := writeDisk(flagToDsk, programName, result.Image, flagAppend); err != nil {
			return err
		}
	}

	return nil
}

// resolveFilePath validates the CLI argument and returns the absolute path
// to the assembly file.
func resolveFilePath(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("no assembly file provided")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("unable to get current working directory: %w", err)
	}

	fullPath := arg
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(cwd, arg)
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return "", fmt.Errorf("assembly file does not exist at path: %s", fullPath)
	}

	return fullPath, nil
}

// reportDiagnostics prints every recorded diagnostic to the command's
// error stream as "line N: message". When the entry carries an ErrorKind,
// it is folded into message as "Kind: text" so the line is still a single
// "line N: message" record.
func reportDiagnostics(cmd *cobra.Command, asm *mc6809.Assembler) {
	for _, entry := range asm.Diagnostics.Entries() {
		message := entry.Message()
		if kind, ok := entry.Kind().(mc6809.ErrorKind); ok {
			message = fmt.Sprintf("%s: %s", kind, message)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s\n", entry.Location().Line(), message)
	}
}

func writeBinary(path string, bytes []byte) error {
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("writing binary image %q: %w", path, err)
	}
	return nil
}

func writeCassette(path, name string, image mc6809.Image, appendMode bool) error {
	file := container.CassetteFile{
		Name:     name,
		FileType: container.FileTypeObject,
		LoadAddr: image.Origin,
		ExecAddr: image.ExecutionAddress,
		Data:     image.Bytes,
	}
	if err := container.WriteCassetteFile(path, file, appendMode); err != nil {
		return fmt.Errorf("writing cassette image %q: %w", path, err)
	}
	return nil
}

func writeDisk(path, name string, image mc6809.Image, appendMode bool) error {
	var img *container.DiskImage
	if appendMode {
		existing, err := container.LoadDiskImage(path)
		if err != nil {
			return fmt.Errorf("writing disk image %q: %w", path, err)
		}
		img = existing
	} else {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("writing disk image %q: already exists; pass --append to add to it", path)
		}
		img = container.NewDiskImage()
	}

	if err := img.WriteFile(name, "BIN", container.DiskFileTypeML, 0, image.Bytes); err != nil {
		return fmt.Errorf("writing disk image %q: %w", path, err)
	}

	if err := container.WriteDiskImage(path, img, true); err != nil {
		return fmt.Errorf("writing disk image %q: %w", path, err)
	}
	return nil
}
