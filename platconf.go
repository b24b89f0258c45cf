package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"

	"github.com/Abathargh/platconf/internal/board"
	"github.com/Abathargh/platconf/internal/chip"
	"github.com/Abathargh/platconf/internal/header"
	"github.com/Abathargh/platconf/internal/layout"
	"github.com/Abathargh/platconf/internal/pin"
	"github.com/Abathargh/platconf/internal/verify"
)

const (
	nameMessage = "usage: platconf [flags] [board name]"
	helpMessage = `
platconf generates the platform configuration header for a board. It reads
the board description from the boards directory (BOARD.json, BOARD.yaml,
BOARD.yml or BOARD.toml), works out how much flash is left for code once the
variable cache has its pages reserved, and writes the #defines describing
memory, peripherals and on-board devices.

The header is rewritten from scratch on every run. If generation fails, any
header previously written at the output path is removed.
`

	helpUsage    = "show the help message"
	bareUsage    = "just print the data without table formatting or graphics"
	versionUsage = "print the version for this build"
	quietUsage   = "do not print the memory layout report"
	verifyUsage  = "preprocess the generated header and check its values"
	stdoutUsage  = "write the header to stdout instead of the output file"
	boardsUsage  = "directory containing the board description files"
	outputUsage  = "path of the generated header"

	defaultBoards = "boards"
)

var (
	Version = ""

	ErrUsage = errors.New(nameMessage)
)

type options struct {
	boards string
	output string
	bare   bool
	quiet  bool
	verify bool
	stdout bool
}

func main() {
	if Version == "" {
		info, ok := debug.ReadBuildInfo()
		if ok {
			Version = info.Main.Version
		}
	}

	var (
		help    bool
		version bool
		opts    options
	)

	fs := flag.NewFlagSet("platconf", flag.ExitOnError)
	fs.BoolVar(&help, "help", false, helpUsage)
	fs.BoolVar(&version, "version", false, versionUsage)
	fs.BoolVar(&opts.bare, "bare", false, bareUsage)
	fs.BoolVar(&opts.quiet, "quiet", false, quietUsage)
	fs.BoolVar(&opts.verify, "verify", false, verifyUsage)
	fs.BoolVar(&opts.stdout, "stdout", false, stdoutUsage)
	fs.StringVar(&opts.boards, "boards", defaultBoards, boardsUsage)
	fs.StringVar(&opts.output, "o", header.DefaultPath, outputUsage)

	if err := fs.Parse(os.Args[1:]); err != nil {
		logErrorMessage("could not parse args: %s", err)
	}

	switch {
	case help:
		// -help flag, show usage and full help message
		fmt.Printf("%s\n", nameMessage)
		fmt.Printf("%s\n", helpMessage)
		fs.PrintDefaults()
		return
	case version:
		// -version flag, show the current embedded version
		fmt.Printf("platconf %s\n", Version)
		return
	case len(fs.Args()) == 1:
		if err := run(fs.Arg(0), opts); err != nil {
			logError(err)
		}
	default:
		logError(ErrUsage)
	}
}

// run generates the header for the named board, removing the previous
// header when generation fails.
func run(name string, opts options) error {
	err := platconf(name, opts)
	if err != nil && !opts.stdout {
		removeStale(opts.output)
	}
	return err
}

// platconf generates the header for the named board.
func platconf(name string, opts options) error {
	b, err := board.Load(opts.boards, name)
	if err != nil {
		return err
	}

	resolved := b.Resolve()

	var l *layout.Layout
	if !resolved.Chip.Family.IsHost() {
		l, err = layout.Compute(resolved)
		if err != nil {
			return err
		}
	}

	var reportOut io.Writer = os.Stdout
	if opts.stdout {
		reportOut = os.Stderr
	}

	if !opts.quiet {
		target := opts.output
		if opts.stdout {
			target = "<stdout>"
		}
		printReport(reportOut, resolved, l, target, opts.bare)
	}

	out, err := header.Render(resolved, l)
	if err != nil {
		return err
	}

	if opts.verify {
		if err := verifyHeader(resolved, l, out); err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintln(reportOut, okStyle(opts.bare).Render("header verified"))
		}
	}

	if opts.stdout {
		_, err := os.Stdout.Write(out)
		return err
	}

	return writeHeader(opts.output, out)
}

// writeHeader replaces the header at path, creating its directory if needed.
func writeHeader(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create the output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("could not write the header: %w", err)
	}
	return nil
}

// removeStale deletes a header left by a previous run, so that a failed
// generation never leaves a usable file behind.
func removeStale(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "could not remove stale header: %s\n", err)
	}
}

func verifyHeader(b board.Board, l *layout.Layout, out []byte) error {
	traits, err := chip.Lookup(b.Chip.Family)
	if err != nil {
		return err
	}

	var includes []string
	if traits.Include != "" {
		includes = append(includes, traits.Include)
	}

	expected, err := expectedMacros(b, l)
	if err != nil {
		return err
	}

	return verify.Check(b.Name+".h", out, includes, expected)
}

// expectedMacros returns what the board values must expand to in the
// generated header.
func expectedMacros(b board.Board, l *layout.Layout) (map[string]string, error) {
	expected := map[string]string{
		"RAM_TOTAL":              fmt.Sprintf("(%d*1024)", b.Chip.RAM),
		"FLASH_TOTAL":            fmt.Sprintf("(%d*1024)", b.Chip.Flash),
		"USARTS":                 strconv.Itoa(b.Chip.USART),
		"SPIS":                   strconv.Itoa(b.Chip.SPI),
		"I2CS":                   strconv.Itoa(b.Chip.I2C),
		"ADCS":                   strconv.Itoa(b.Chip.ADC),
		"DACS":                   strconv.Itoa(b.Chip.DAC),
		"DEFAULT_CONSOLE_DEVICE": b.Info.DefaultConsole,
	}

	if l == nil {
		expected["RESIZABLE_JSVARS"] = ""
	} else {
		expected["JSVAR_CACHE_SIZE"] = strconv.Itoa(l.Variables)
		expected["FLASH_AVAILABLE_FOR_CODE"] = strconv.Itoa(l.FlashAvailableForCode)
		expected["FLASH_PAGE_SIZE"] = strconv.Itoa(l.FlashPageSize)
		expected["FLASH_PAGES"] = strconv.Itoa(l.FlashPages)
		expected["BOOTLOADER_SIZE"] = strconv.Itoa(l.BootloaderSize)
	}

	for _, name := range board.PinDevices {
		dev, ok := b.Devices[name]
		if !ok {
			continue
		}

		p, err := pin.Parse(dev.Pin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		expected[name+"_PININDEX"] = p.Expr()

		if name == "BTN1" {
			expected["BTN1_ONSTATE"] = "1"
			if dev.Inverted {
				expected["BTN1_ONSTATE"] = "0"
			}
		}
	}

	if usb, ok := b.Devices["USB"]; ok && usb.PinDisc != "" {
		p, err := pin.Parse(usb.PinDisc)
		if err != nil {
			return nil, fmt.Errorf("USB: %w", err)
		}
		expected["USB_DISCONNECT_PIN"] = p.Expr()
	}

	return expected, nil
}

func logError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
	os.Exit(1)
}

func logErrorMessage(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
