// Package hclparse provides a wrapper around the HCL2 parser to handle diagnostics and panics in one place.
//
// The HCL2 parser and especially cty conversions panic on many types of malformed input, so every parse entry
// point recovers from panics and converts them to normal errors.
package hclparse

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/term"

	"github.com/runstack-io/runstack/internal/errors"
	"github.com/runstack-io/runstack/pkg/log"
)

// Parser wraps hclparse.Parser so files parsed through it share a source cache for diagnostics rendering.
type Parser struct {
	*hclparse.Parser
	logger log.Logger
}

// NewParser returns a Parser that logs parse warnings through the given logger.
func NewParser(logger log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}

	return &Parser{
		Parser: hclparse.NewParser(),
		logger: logger,
	}
}

// ParseFromFile reads and parses the file at the given path.
func (parser *Parser) ParseFromFile(configPath string) (*File, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.New(err)
	}

	return parser.ParseFromBytes(content, configPath)
}

// ParseFromString parses the given string as if it were the contents of the file at configPath.
func (parser *Parser) ParseFromString(content, configPath string) (*File, error) {
	return parser.ParseFromBytes([]byte(content), configPath)
}

// ParseFromBytes parses the given bytes, dispatching on the file extension between HCL and JSON syntax.
func (parser *Parser) ParseFromBytes(content []byte, configPath string) (file *File, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New(PanicWhileParsingError{RecoveredValue: recovered, ConfigFile: configPath})
		}
	}()

	var (
		diags   hcl.Diagnostics
		hclFile *hcl.File
	)

	switch filepath.Ext(configPath) {
	case ".json":
		hclFile, diags = parser.ParseJSON(content, configPath)
	default:
		hclFile, diags = parser.ParseHCL(content, configPath)
	}

	if diags.HasErrors() {
		parser.logger.Warnf("Failed to parse HCL in file %s: %v", configPath, diags)

		return nil, errors.New(diags)
	}

	return &File{
		Parser:     parser,
		File:       hclFile,
		ConfigPath: configPath,
	}, nil
}

// DiagnosticsWriter returns an HCL diagnostics emitter suited for the current terminal.
func (parser *Parser) DiagnosticsWriter(writer io.Writer, disableColor bool) hcl.DiagnosticWriter {
	termColor := !disableColor && term.IsTerminal(int(os.Stderr.Fd()))

	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		termWidth = 80
	}

	return hcl.NewDiagnosticTextWriter(writer, parser.Files(), uint(termWidth), termColor)
}
