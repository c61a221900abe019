package sink

import (
	"encoding/json"

	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/errors"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	loci   bool
	indent bool
}

// WithJSONLoci includes every annotation of the pass in the output.
func WithJSONLoci() JSONOption { return func(r *jsonRenderer) { r.loci = true } }

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// RenderJSON encodes s. Annotations are left out unless [WithJSONLoci] is given.
func RenderJSON(s coordinator.Snapshot, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}
	if !r.loci {
		s.Loci = nil
	}

	var (
		data []byte
		err  error
	)
	if r.indent {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	return append(data, '\n'), nil
}
