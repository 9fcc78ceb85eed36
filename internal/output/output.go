package output

import (
	"fmt"
	"io"

	"github.com/mj1618/icepid/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want yaml or json)", s)
	}
}

// LookupResult is the output of the `lookup` command and the source_pid tool.
type LookupResult struct {
	WindowID uint32 `yaml:"window_id"           json:"window_id"`
	Resolved bool   `yaml:"resolved"            json:"resolved"`
	PID      int    `yaml:"pid,omitempty"       json:"pid,omitempty"`
	App      string `yaml:"app,omitempty"       json:"app,omitempty"`
	BundleID string `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	TS       int64  `yaml:"ts"                  json:"ts"`
}

// ListResult is the output of the `list` command and the list_items tool.
type ListResult struct {
	TS    int64               `yaml:"ts"    json:"ts"`
	Items []model.MenuBarItem `yaml:"items" json:"items"`
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, v, PrettyOutput)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}
