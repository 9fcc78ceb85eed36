package output

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML serializes v to w as YAML.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// YAMLString renders v as a YAML document. MCP tool responses use it.
func YAMLString(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
