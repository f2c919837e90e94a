package scope

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Default image size.
const (
	DefaultWidth  = 24 * vg.Centimeter
	DefaultHeight = 8 * vg.Centimeter
)

// Write renders p to output in format ("png", "svg", "pdf", ...).
func Write(p *plot.Plot, width, height vg.Length, output io.Writer, format string) error {
	w, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	_, err = w.WriteTo(output)
	return err
}

// WriteClose renders p to output and always closes it. Render and close
// failures are both reported.
func WriteClose(p *plot.Plot, width, height vg.Length, output io.WriteCloser, format string) error {
	var result *multierror.Error
	if err := Write(p, width, height, output, format); err != nil {
		result = multierror.Append(result, err)
	}
	if err := output.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close output: %w", err))
	}
	return result.ErrorOrNil()
}

// Save renders p to path. The format is taken from the file extension.
func Save(p *plot.Plot, width, height vg.Length, path string) error {
	format := Format(path)
	if format == "" {
		return fmt.Errorf("unknown image format for %q", path)
	}

	output, err := os.Create(path)
	if err != nil {
		return err
	}
	return WriteClose(p, width, height, output, format)
}

// Format returns the image format for a file name, or "" when the extension
// is not known.
func Format(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff":
		return ext
	default:
		return ""
	}
}
