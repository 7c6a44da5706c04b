package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/render"
	"github.com/matzehuels/schemagraph/pkg/render/nodelink"
)

// WriteJSON encodes the render contract of p as indented JSON.
// The output can be re-imported with [ReadJSON].
func WriteJSON(p layout.Positioned, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(layout.Flow(p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Render encodes p in format and returns the bytes.
func Render(ctx context.Context, p layout.Positioned, format render.Format, opts nodelink.Options) ([]byte, error) {
	switch format {
	case render.FormatJSON:
		data, err := json.MarshalIndent(layout.Flow(p), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		return append(data, '\n'), nil
	case render.FormatDOT:
		return []byte(nodelink.ToDOT(p, opts)), nil
	case render.FormatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(p, opts))
	case render.FormatPNG:
		return nodelink.RenderPNG(ctx, nodelink.ToDOT(p, opts))
	}
	_, err := render.ParseFormat(string(format))
	return nil, err
}

// Write encodes p in format and writes it to w.
func Write(ctx context.Context, p layout.Positioned, format render.Format, w io.Writer, opts nodelink.Options) error {
	data, err := Render(ctx, p, format, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportFile writes p in format to a file at path.
// This is a convenience wrapper around [Render] for file-based output.
func ExportFile(ctx context.Context, p layout.Positioned, format render.Format, path string, opts nodelink.Options) error {
	data, err := Render(ctx, p, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
