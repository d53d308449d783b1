// Package report renders command results as plain text or YAML.
package report

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a result is rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

const (
	yamlIndentConstant                = 2
	unsupportedFormatTemplateConstant = "unsupported output format %q (expected text or yaml)"
	lineTemplateConstant              = "%s\n"
)

// ParseFormat validates a user supplied format. Empty input selects FormatText.
func ParseFormat(value string) (Format, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	switch Format(normalizedValue) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplateConstant, value)
	}
}

// Printer writes results to a single destination.
type Printer struct {
	writer io.Writer
	format Format
}

// NewPrinter constructs a Printer. A nil writer discards output.
func NewPrinter(writer io.Writer, format Format) *Printer {
	if writer == nil {
		writer = io.Discard
	}
	if len(format) == 0 {
		format = FormatText
	}
	return &Printer{writer: writer, format: format}
}

// Print renders value as YAML or textLines as text, depending on the format.
func (printer *Printer) Print(value any, textLines ...string) error {
	if printer.format == FormatYAML {
		encoder := yaml.NewEncoder(printer.writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(value); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	}

	for _, textLine := range textLines {
		if _, writeError := fmt.Fprintf(printer.writer, lineTemplateConstant, textLine); writeError != nil {
			return writeError
		}
	}
	return nil
}
