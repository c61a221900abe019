package sink

import (
	"fmt"
	"strings"

	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidateFormats checks that every format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json)", f)
		}
	}
	return nil
}

// ParseFormats splits a comma separated format list.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []string{FormatSVG}
	}
	return out, ValidateFormats(out)
}

// Render renders s in format.
func Render(s coordinator.Snapshot, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(s, WithLabels()), nil
	case FormatJSON:
		return RenderJSON(s, WithJSONIndent(), WithJSONLoci())
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}

// Filename returns the output file name for base and format.
func Filename(base, format string) string {
	return fmt.Sprintf("%s.%s", base, format)
}
