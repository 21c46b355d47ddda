package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// WildcardPort is the source port that binds the complete output mapping of
// the upstream node to a single input port of a free-form sink.
const WildcardPort = "*"

// Description is the external, versioned workflow document.
type Description struct {
	Nodes NodeSet    `json:"nodes" yaml:"nodes"`
	Edges []EdgeSpec `json:"edges" yaml:"edges"`
}

// NodeSpec describes one node of a workflow document.
type NodeSpec struct {
	Kind    string                 `json:"kind" yaml:"kind"`
	Config  map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
	Inputs  []string               `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []string               `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// PortRef addresses a named port on a node. It is encoded as ["node", "port"].
type PortRef struct {
	Node string
	Port string
}

func (p PortRef) String() string {
	return p.Node + "." + p.Port
}

// MarshalJSON encodes the reference as a two element array.
func (p PortRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Node, p.Port})
}

// UnmarshalJSON decodes a two element array.
func (p *PortRef) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("port reference must be [node, port]: %w", err)
	}
	return p.fromPair(pair)
}

// UnmarshalYAML decodes a two element sequence.
func (p *PortRef) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("port reference must be [node, port]: %w", err)
	}
	return p.fromPair(pair)
}

func (p *PortRef) fromPair(pair []string) error {
	if len(pair) != 2 {
		return fmt.Errorf("port reference must have exactly 2 elements, got %d", len(pair))
	}
	p.Node, p.Port = pair[0], pair[1]
	return nil
}

// EdgeSpec wires an output port to an input port.
type EdgeSpec struct {
	From PortRef `json:"from" yaml:"from"`
	To   PortRef `json:"to" yaml:"to"`
}

// NodeSet is an insertion-ordered mapping from node id to NodeSpec. The
// order in which nodes appear in the document is kept so that scheduling
// is reproducible for a given description.
type NodeSet struct {
	order []string
	specs map[string]NodeSpec
}

// Add appends a node. Adding an id twice is an error.
func (s *NodeSet) Add(id string, spec NodeSpec) error {
	if s.specs == nil {
		s.specs = make(map[string]NodeSpec)
	}
	if _, exists := s.specs[id]; exists {
		return &Error{Kind: KindDuplicateNode, NodeID: id, Message: "node id declared more than once"}
	}
	s.order = append(s.order, id)
	s.specs[id] = spec
	return nil
}

// Get returns the spec for id.
func (s NodeSet) Get(id string) (NodeSpec, bool) {
	spec, ok := s.specs[id]
	return spec, ok
}

// IDs returns node ids in declaration order.
func (s NodeSet) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of nodes.
func (s NodeSet) Len() int {
	return len(s.order)
}

// MarshalJSON writes nodes in declaration order.
func (s NodeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.specs[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object token by token so the key order survives.
func (s *NodeSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nodes must be an object")
	}

	*s = NodeSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("node id must be a string")
		}

		var spec NodeSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		spec.Config = normalizeNumbers(spec.Config)
		if err := s.Add(id, spec); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// UnmarshalYAML reads a mapping node, keeping key order.
func (s *NodeSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("nodes must be a mapping")
	}

	*s = NodeSet{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var id string
		if err := value.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("node id must be a string: %w", err)
		}
		var spec NodeSpec
		if err := value.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		if err := s.Add(id, spec); err != nil {
			return err
		}
	}
	return nil
}

// normalizeNumbers converts json.Number values produced by UseNumber into
// int64 when integral and float64 otherwise.
func normalizeNumbers(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		return normalizeNumbers(t)
	case []interface{}:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

// ParseDescription decodes a JSON or YAML workflow document. JSON is tried
// first when the document starts with '{'.
func ParseDescription(data []byte) (*Description, error) {
	var desc Description

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &Error{Kind: KindInvalidDescription, Message: "empty workflow document"}
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &desc); err != nil {
			return nil, wrapParseError(err)
		}
		return &desc, nil
	}

	if err := yaml.Unmarshal(trimmed, &desc); err != nil {
		return nil, wrapParseError(err)
	}
	return &desc, nil
}

func wrapParseError(err error) error {
	if e, ok := AsError(err); ok {
		return e
	}
	return &Error{Kind: KindInvalidDescription, Message: "failed to parse workflow document", Err: err}
}
