package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/bencode"
)

var ErrEmptyDocument = errors.New("codec: empty yaml document")

// YAML renders trees as YAML for humans. Dictionary keys keep their canonical
// order, text byte strings become plain strings and everything else is
// written as !!binary. Decoding accepts !!int (non-negative), !!str,
// !!binary, sequences and mappings.
type YAML struct{}

func (YAML) Encode(v bencode.Value) ([]byte, error) {
	n, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func (YAML) Decode(b []byte) (bencode.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	return fromYAML(doc.Content[0])
}

func yamlNode(v bencode.Value) (*yaml.Node, error) {
	switch x := v.(type) {
	case bencode.Integer:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(uint64(x), 10)}, nil
	case bencode.ByteString:
		if utf8.Valid(x) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(x)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(x)}, nil
	case bencode.List:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			c, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case *bencode.Dict:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, e := range x.All() {
			c, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
		}
		return n, nil
	case nil:
		return nil, ErrNilValue
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func fromYAML(n *yaml.Node) (bencode.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			if strings.HasPrefix(n.Value, "-") {
				return nil, ErrNegativeInteger
			}
			u, err := strconv.ParseUint(n.Value, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrIntegerRange, n.Value)
			}
			return bencode.Integer(u), nil
		case "!!str":
			return bencode.ByteString(n.Value), nil
		case "!!binary":
			b, err := base64.StdEncoding.DecodeString(n.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return bencode.ByteString(b), nil
		}
		return nil, fmt.Errorf("%w: %s at line %d", ErrUnsupportedType, n.ShortTag(), n.Line)
	case yaml.SequenceNode:
		l := make(bencode.List, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil
	case yaml.MappingNode:
		d := bencode.NewDict()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: non-scalar key at line %d", ErrUnsupportedType, k.Line)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			d.Set(k.Value, v)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: yaml node kind %d", ErrUnsupportedType, n.Kind)
}
