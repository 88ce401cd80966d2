package cmd

import (
	"io"

	"github.com/ardanlabs/petition/business/sys/output"
)

// render writes the value to w in the format selected by --output.
func render(w io.Writer, v any) error {
	return output.Render(w, outputFormat, v)
}
