package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type printer struct {
	w      io.Writer
	format string
}

// print writes v as indented JSON or as YAML. YAML goes through JSON first so
// both formats use the API field names.
func (p printer) print(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(p.format) {
	case "", "json":
		_, err = fmt.Fprintln(p.w, string(raw))
		return err
	case "yaml", "yml":
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (json, yaml)", p.format)
	}
}
