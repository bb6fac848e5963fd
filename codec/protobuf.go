package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/bencode"
)

// Protobuf transcodes trees to a google.protobuf.Value. Dictionaries become
// Struct, lists ListValue, byte strings string_value (UTF-8 only) and
// integers number_value, which limits them to 2^53. Output is marshaled
// deterministically.
type Protobuf struct{}

func (Protobuf) Encode(v bencode.Value) ([]byte, error) {
	pv, err := ToStructpb(v)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

func (Protobuf) Decode(b []byte) (bencode.Value, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return FromStructpb(&pv)
}

// ToStructpb converts a tree to a structpb.Value.
func ToStructpb(v bencode.Value) (*structpb.Value, error) {
	switch x := v.(type) {
	case bencode.Integer:
		if x > maxExactFloat {
			return nil, fmt.Errorf("%w: %d", ErrIntegerRange, uint64(x))
		}
		return structpb.NewNumberValue(float64(x)), nil
	case bencode.ByteString:
		if !utf8.Valid(x) {
			return nil, ErrNotText
		}
		return structpb.NewStringValue(string(x)), nil
	case bencode.List:
		lv := &structpb.ListValue{Values: make([]*structpb.Value, len(x))}
		for i, e := range x {
			pv, err := ToStructpb(e)
			if err != nil {
				return nil, err
			}
			lv.Values[i] = pv
		}
		return structpb.NewListValue(lv), nil
	case *bencode.Dict:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, x.Len())}
		for k, e := range x.All() {
			pv, err := ToStructpb(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			st.Fields[k] = pv
		}
		return structpb.NewStructValue(st), nil
	case nil:
		return nil, ErrNilValue
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// FromStructpb converts a structpb.Value back to a tree.
func FromStructpb(pv *structpb.Value) (bencode.Value, error) {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v", ErrIntegerRange, f)
		}
		return fromFloat(f)
	case *structpb.Value_StringValue:
		return bencode.ByteString(k.StringValue), nil
	case *structpb.Value_ListValue:
		vals := k.ListValue.GetValues()
		l := make(bencode.List, len(vals))
		for i, e := range vals {
			v, err := FromStructpb(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	case *structpb.Value_StructValue:
		d := bencode.NewDict()
		for key, e := range k.StructValue.GetFields() {
			v, err := FromStructpb(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			d.Set(key, v)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, pv.GetKind())
}
