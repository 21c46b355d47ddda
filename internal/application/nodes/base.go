// Package nodes implements the built-in node kinds and registers them,
// together with their editor label aliases, on a registry.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/aescanero/autogent/pkg/domain"
)

type base struct {
	id       string
	kind     string
	ports    domain.Ports
	critical bool
}

func (b *base) ID() string { return b.id }

func (b *base) Kind() string { return b.kind }

func (b *base) Ports() domain.Ports { return b.ports }

// Critical reports the per-node halt override set with "critical: true".
func (b *base) Critical() bool { return b.critical }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeConfig decodes raw into out (which carries its defaults) and
// validates it. Failures are InvalidConfig errors for node id.
func decodeConfig(id string, raw map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return &domain.Error{Kind: domain.KindInvalidConfig, NodeID: id, Err: err}
	}

	if err := dec.Decode(raw); err != nil {
		return &domain.Error{Kind: domain.KindInvalidConfig, NodeID: id, Message: "failed to decode config", Err: err}
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &domain.Error{
				Kind:    domain.KindInvalidConfig,
				NodeID:  id,
				Message: fmt.Sprintf("config key %q fails %q (value %v)", fe.Field(), constraint(fe), fe.Value()),
			}
		}
		return &domain.Error{Kind: domain.KindInvalidConfig, NodeID: id, Err: err}
	}
	return nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// requireText returns the non-empty text bound to port.
func requireText(id string, in domain.Values, port string) (string, error) {
	v, ok := in[port]
	if !ok || v == nil {
		return "", &domain.Error{Kind: domain.KindMissingInput, NodeID: id, Port: port, Message: "input not bound"}
	}
	text := toText(v)
	if strings.TrimSpace(text) == "" {
		return "", &domain.Error{Kind: domain.KindMissingInput, NodeID: id, Port: port, Message: "input is empty"}
	}
	return text, nil
}

// adapterFailure wraps an adapter error. Context errors pass through so the
// executor can tell timeouts and cancellation apart.
func adapterFailure(id string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := domain.AsError(err); ok {
		return err
	}
	return &domain.Error{Kind: domain.KindAdapterFailure, NodeID: id, Err: err}
}

// toText renders a port value as text.
func toText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "\n")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, toText(item))
		}
		return strings.Join(parts, "\n")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// toFloats converts a vector-like port value.
func toFloats(v interface{}) ([]float64, bool) {
	switch t := v.(type) {
	case []float64:
		return t, true
	case []float32:
		out := make([]float64, len(t))
		for i, f := range t {
			out[i] = float64(f)
		}
		return out, true
	case []interface{}:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			switch n := item.(type) {
			case float64:
				out = append(out, n)
			case float32:
				out = append(out, float64(n))
			case int:
				out = append(out, float64(n))
			case int64:
				out = append(out, float64(n))
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}
