package game

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	layoutCrate     = "crate"
	layoutLongCrate = "longCrate"
)

var (
	//go:embed layouts/default.json
	defaultLayout []byte
	//go:embed layouts/schema.json
	layoutSchema []byte
)

// LayoutEntry is one static crate. X and Y are the center.
type LayoutEntry struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type Layout []LayoutEntry

// LoadLayout reads a crate layout from path, or returns the built-in
// layout when path is empty
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return ParseLayout(defaultLayout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crate layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout validates data against the layout schema and decodes it
func ParseLayout(data []byte) (Layout, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("layout.schema.json", bytes.NewReader(layoutSchema)); err != nil {
		return nil, fmt.Errorf("layout schema: %w", err)
	}
	schema, err := c.Compile("layout.schema.json")
	if err != nil {
		return nil, fmt.Errorf("layout schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse crate layout: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid crate layout: %w", err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode crate layout: %w", err)
	}
	return l, nil
}
