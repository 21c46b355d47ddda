package nodes

import (
	"context"
	"strings"
	"unicode"

	"github.com/aescanero/autogent/pkg/domain"
)

// TextInput seeds a workflow with text from the run's initial inputs.
type TextInput struct {
	base
	defaultText string
}

type textInputConfig struct {
	DefaultText string `mapstructure:"default_text"`
	Critical    bool   `mapstructure:"critical"`
}

// NewTextInput is the text_input factory.
func NewTextInput(id string, raw map[string]interface{}) (domain.Node, error) {
	var cfg textInputConfig
	if err := decodeConfig(id, raw, &cfg); err != nil {
		return nil, err
	}
	return &TextInput{
		base: base{
			id:       id,
			kind:     domain.KindTextInput,
			critical: cfg.Critical,
			ports: domain.Ports{
				Inputs:  []string{"text"},
				Outputs: []string{"text", "kind_tag"},
			},
		},
		defaultText: cfg.DefaultText,
	}, nil
}

// Execute emits the supplied text, else the configured default, else "".
func (n *TextInput) Execute(_ context.Context, in domain.Values) (domain.Values, error) {
	text := n.defaultText
	if v, ok := in["text"]; ok && v != nil {
		text = toText(v)
	}
	return domain.Values{"text": text, "kind_tag": "text"}, nil
}

// Text processing operations.
const (
	OpSplit           = "split"
	OpSummarize       = "summarize"
	OpExtractKeywords = "extract_keywords"
	OpPassthrough     = "passthrough"
)

const maxKeywords = 10

var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true,
	"been": true, "before": true, "being": true, "below": true, "between": true,
	"both": true, "could": true, "does": true, "doing": true, "down": true,
	"during": true, "each": true, "from": true, "further": true, "have": true,
	"having": true, "here": true, "into": true, "just": true, "more": true,
	"most": true, "once": true, "only": true, "other": true, "over": true,
	"same": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "would": true, "your": true, "yours": true,
}

// TextProcessing applies a deterministic text operation. It never calls an LLM.
type TextProcessing struct {
	base
	cfg textProcessingConfig
}

type textProcessingConfig struct {
	Operation string `mapstructure:"operation" validate:"oneof=split summarize extract_keywords passthrough"`
	Delimiter string `mapstructure:"delimiter"`
	MaxLength int    `mapstructure:"max_length" validate:"min=1"`
	Critical  bool   `mapstructure:"critical"`
}

// NewTextProcessing is the text_processing factory. The output port depends
// on the configured operation.
func NewTextProcessing(id string, raw map[string]interface{}) (domain.Node, error) {
	cfg := textProcessingConfig{
		Operation: OpPassthrough,
		Delimiter: "\n",
		MaxLength: 100,
	}
	if err := decodeConfig(id, raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.Operation == OpSplit && cfg.Delimiter == "" {
		return nil, domain.NewError(domain.KindInvalidConfig, id, "split requires a non-empty delimiter")
	}

	var outputs []string
	switch cfg.Operation {
	case OpSplit:
		outputs = []string{"chunks"}
	case OpExtractKeywords:
		outputs = []string{"keywords"}
	default:
		outputs = []string{"text"}
	}

	return &TextProcessing{
		base: base{
			id:       id,
			kind:     domain.KindTextProcessing,
			critical: cfg.Critical,
			ports: domain.Ports{
				Inputs:   []string{"text"},
				Required: []string{"text"},
				Outputs:  outputs,
			},
		},
		cfg: cfg,
	}, nil
}

// Execute runs the configured operation.
func (n *TextProcessing) Execute(_ context.Context, in domain.Values) (domain.Values, error) {
	text := toText(in["text"])

	switch n.cfg.Operation {
	case OpSplit:
		return domain.Values{"chunks": split(text, n.cfg.Delimiter)}, nil
	case OpSummarize:
		return domain.Values{"text": truncateTokens(text, n.cfg.MaxLength)}, nil
	case OpExtractKeywords:
		return domain.Values{"keywords": extractKeywords(text)}, nil
	default:
		return domain.Values{"text": text}, nil
	}
}

func split(text, delimiter string) []string {
	chunks := []string{}
	for _, part := range strings.Split(text, delimiter) {
		if part = strings.TrimSpace(part); part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}

// truncateTokens returns the prefix of text ending with its max-th
// whitespace-separated token. Whitespace inside the prefix is preserved.
func truncateTokens(text string, max int) string {
	count := 0
	inToken := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inToken && count == max {
				return text[:i]
			}
			inToken = false
			continue
		}
		if !inToken {
			inToken = true
			count++
		}
	}
	return text
}

// extractKeywords returns up to maxKeywords distinct lowercase tokens longer
// than three characters that are not stop words, in first-seen order.
func extractKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	keywords := []string{}
	for _, w := range words {
		if len([]rune(w)) <= 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
