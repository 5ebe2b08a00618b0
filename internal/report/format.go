package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Renderer writes one report in a fixed format.
type Renderer func(io.Writer, Report) error

// Formats lists the accepted names for RendererFor.
var Formats = []string{"json", "text", "pdf", "xlsx"}

// RendererFor returns the renderer for a format name or file extension.
func RendererFor(format string) (Renderer, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".") {
	case "json":
		return WriteJSON, nil
	case "text", "txt":
		return WriteText, nil
	case "pdf":
		return WritePDF, nil
	case "xlsx", "excel":
		return WriteXLSX, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
