package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aescanero/autogent/pkg/domain"
)

// Output formats.
const (
	FormatText       = "text"
	FormatStructured = "structured"
	FormatJSON       = "json"
)

// Output is the sink node. It accepts any input port and formats whatever
// arrives.
type Output struct {
	base
	format  string
	primary bool
}

type outputConfig struct {
	Format   string `mapstructure:"format" validate:"oneof=text structured json"`
	Primary  bool   `mapstructure:"primary"`
	Critical bool   `mapstructure:"critical"`
}

// NewOutput is the output factory.
func NewOutput(id string, raw map[string]interface{}) (domain.Node, error) {
	cfg := outputConfig{Format: FormatText}
	if err := decodeConfig(id, raw, &cfg); err != nil {
		return nil, err
	}

	return &Output{
		base: base{
			id:       id,
			kind:     domain.KindOutput,
			critical: cfg.Critical,
			ports: domain.Ports{
				Outputs:  []string{"output", "format"},
				FreeForm: true,
			},
		},
		format:  cfg.Format,
		primary: cfg.Primary,
	}, nil
}

// Primary reports whether this sink was flagged with "primary: true".
func (n *Output) Primary() bool { return n.primary }

// Execute formats the received inputs.
func (n *Output) Execute(_ context.Context, in domain.Values) (domain.Values, error) {
	var out interface{}

	switch n.format {
	case FormatText:
		out = renderText(in)
	case FormatJSON:
		data, err := json.Marshal(map[string]interface{}(in))
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindAdapterFailure, NodeID: n.id, Message: "inputs are not JSON encodable", Err: err}
		}
		out = string(data)
	default:
		out = map[string]interface{}(in.Clone())
	}

	return domain.Values{"output": out, "format": n.format}, nil
}

// renderText picks the "text" input, else the only input, else renders
// every input as sorted "key: value" lines.
func renderText(in domain.Values) string {
	if v, ok := in["text"]; ok {
		return toText(v)
	}
	if len(in) == 1 {
		for _, v := range in {
			return toText(v)
		}
	}

	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, toText(in[k])))
	}
	return strings.Join(lines, "\n")
}
