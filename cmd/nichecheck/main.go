package main

import (
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/region"
	"github.com/wippyai/niche/witcheck"
)

// exitInvalid is returned when the image was read but is not a valid value.
const exitInvalid = 2

func main() {
	var (
		witFile     = flag.String("wit", "", "Path to a WIT package in JSON form (wasm-tools component wit --json)")
		typeName    = flag.String("type", "", "Type to check the image against")
		hexImage    = flag.String("hex", "", "Little-endian byte image in hex (spaces and 0x prefix allowed)")
		list        = flag.Bool("list", false, "List types with their layout and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		debug       = flag.Bool("debug", false, "Log derivations and rejections to stderr")
	)
	flag.Parse()

	if *witFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: nichecheck -wit <pkg.json> -type name -hex '01 00 00 00'")
		fmt.Fprintln(os.Stderr, "       nichecheck -wit <pkg.json> -list")
		fmt.Fprintln(os.Stderr, "       nichecheck -wit <pkg.json> -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()
	niche.SetLogger(logger)

	schema, err := loadSchema(*witFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*witFile, schema); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	out := newPrinter(term.IsTerminal(int(os.Stdout.Fd())))

	if *list {
		listTypes(out, schema)
		return
	}

	if *typeName == "" {
		fmt.Fprintln(os.Stderr, "Error: -type is required unless -list or -i is given")
		os.Exit(1)
	}

	d, err := schema.Descriptor(*typeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	err = check(d, *hexImage)
	switch {
	case err == nil:
		fmt.Println(out.render(validStyle, "valid "+d.Name))
	case errors.IsValidation(err):
		fmt.Println(out.render(errorStyle, "invalid: "+err.Error()))
		os.Exit(exitInvalid)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSchema(path string, logger *zap.Logger) (*witcheck.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wit: %w", err)
	}
	defer f.Close()
	return witcheck.Decode(f, niche.NewRegistry(niche.WithLogger(logger)))
}

func listTypes(out printer, schema *witcheck.Schema) {
	for _, name := range schema.Names() {
		d, err := schema.Descriptor(name)
		if err != nil {
			fmt.Printf("%s %s\n", out.render(typeStyle, name), out.render(helpStyle, "("+err.Error()+")"))
			continue
		}
		fmt.Println(out.render(typeStyle, d.String()))
	}
}

// check parses a hex image and validates it as d.
func check(d *niche.Descriptor, image string) error {
	b, err := parseHex(image)
	if err != nil {
		return err
	}
	if uintptr(len(b)) != d.Size {
		return errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("%s needs %d bytes, got %d", d.Name, d.Size, len(b)))
	}
	if d.Check == nil {
		return nil
	}
	return d.Check(region.OfBytes(b, binary.LittleEndian))
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", "_", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.ParseFailed("hex image", err)
	}
	return b, nil
}
