package nodes

import (
	"context"
	"fmt"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// Safety checks text against a safety protocol and can block the run.
type Safety struct {
	base
	cfg     safetyConfig
	checker ports.SafetyChecker
}

type safetyConfig struct {
	Operation        string                 `mapstructure:"operation" validate:"oneof=content_check pii_scan bias_audit"`
	BlockOnViolation bool                   `mapstructure:"block_on_violation"`
	Params           map[string]interface{} `mapstructure:"params"`
	Critical         bool                   `mapstructure:"critical"`
}

// NewSafetyFactory returns the safety factory bound to checker.
func NewSafetyFactory(checker ports.SafetyChecker) domain.Factory {
	return func(id string, raw map[string]interface{}) (domain.Node, error) {
		cfg := safetyConfig{Operation: "content_check"}
		if err := decodeConfig(id, raw, &cfg); err != nil {
			return nil, err
		}

		return &Safety{
			base: base{
				id:       id,
				kind:     domain.KindSafety,
				critical: cfg.Critical,
				ports: domain.Ports{
					Inputs:   []string{"text"},
					Required: []string{"text"},
					Outputs:  []string{"verdict", "details", "text"},
				},
			},
			cfg:     cfg,
			checker: checker,
		}, nil
	}
}

// Execute fails with SafetyViolation only for a blocking verdict under
// block_on_violation. Otherwise the text is passed through with the verdict.
func (n *Safety) Execute(ctx context.Context, in domain.Values) (domain.Values, error) {
	text, err := requireText(n.id, in, "text")
	if err != nil {
		return nil, err
	}

	res, err := n.checker.Check(ctx, n.cfg.Operation, text, n.cfg.Params)
	if err != nil {
		return nil, adapterFailure(n.id, err)
	}
	if res == nil {
		return nil, adapterFailure(n.id, fmt.Errorf("safety checker returned no result"))
	}

	if res.Blocking && n.cfg.BlockOnViolation {
		return nil, &domain.Error{
			Kind:    domain.KindSafetyViolation,
			NodeID:  n.id,
			Message: fmt.Sprintf("%s returned verdict %s", n.cfg.Operation, res.Verdict),
		}
	}

	details := res.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	return domain.Values{
		"verdict": res.Verdict,
		"details": details,
		"text":    text,
	}, nil
}
