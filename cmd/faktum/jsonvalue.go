package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/transact"
	"github.com/cuemby/faktum/pkg/value"
)

// decodeDataValue turns one JSON-encoded triple value into a
// value.DataValue. Bare JSON null/bool/number/string decode to the
// matching kind; an object selects a kind JSON can't represent
// natively: {"kw":"name"} a keyword, {"e":123} an entity reference,
// {"b":"..."} base64-encoded bytes. Unlike a query atom's term, a
// transaction value is never a variable.
func decodeDataValue(raw json.RawMessage) (value.DataValue, error) {
	if string(raw) == "null" {
		return value.Null(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return value.String(s), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj["kw"] != nil:
			var kw string
			if err := json.Unmarshal(obj["kw"], &kw); err != nil {
				return value.DataValue{}, fmt.Errorf("keyword value: %w", err)
			}
			return value.Keyword(kw), nil
		case obj["e"] != nil:
			var id int64
			if err := json.Unmarshal(obj["e"], &id); err != nil {
				return value.DataValue{}, fmt.Errorf("entity value: %w", err)
			}
			return value.EntityRef(value.EntityId(id)), nil
		case obj["b"] != nil:
			var encoded string
			if err := json.Unmarshal(obj["b"], &encoded); err != nil {
				return value.DataValue{}, fmt.Errorf("bytes value: %w", err)
			}
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return value.DataValue{}, fmt.Errorf("bytes value: %w", err)
			}
			return value.Bytes(decoded), nil
		default:
			return value.DataValue{}, fmt.Errorf("unrecognized value object %s", raw)
		}
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return value.Bool(b), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err == nil {
		if i, err := num.Int64(); err == nil {
			return value.Int(i), nil
		}
		f, err := num.Float64()
		if err != nil {
			return value.DataValue{}, fmt.Errorf("numeric value: %w", err)
		}
		return value.Float(f), nil
	}

	return value.DataValue{}, fmt.Errorf("cannot decode value %s", raw)
}

type jsonTripleWrite struct {
	Entity   int64           `json:"e,omitempty"`
	Attr     string          `json:"a"`
	Value    json.RawMessage `json:"v"`
	Validity *int64          `json:"vld,omitempty"`
}

type jsonTripleOp struct {
	Put     *jsonTripleWrite `json:"put,omitempty"`
	Retract *jsonTripleWrite `json:"retract,omitempty"`
}

// jsonTxRequest is §6.4's `{ tx: [...], comment? }` write shape.
type jsonTxRequest struct {
	Tx      []jsonTripleOp `json:"tx"`
	Comment string         `json:"comment,omitempty"`
}

func decodeTripleWrite(w jsonTripleWrite) (transact.TripleWrite, error) {
	v, err := decodeDataValue(w.Value)
	if err != nil {
		return transact.TripleWrite{}, err
	}
	tw := transact.TripleWrite{Entity: value.EntityId(w.Entity), Attr: w.Attr, Value: v}
	if w.Validity != nil {
		tw.Validity = value.Validity(*w.Validity)
	}
	return tw, nil
}

func toTxRequest(j jsonTxRequest) (transact.TxRequest, error) {
	req := transact.TxRequest{Comment: j.Comment}
	for i, op := range j.Tx {
		var o transact.TripleOp
		if op.Put != nil {
			tw, err := decodeTripleWrite(*op.Put)
			if err != nil {
				return req, fmt.Errorf("tx[%d].put: %w", i, err)
			}
			o.Put = &tw
		}
		if op.Retract != nil {
			tw, err := decodeTripleWrite(*op.Retract)
			if err != nil {
				return req, fmt.Errorf("tx[%d].retract: %w", i, err)
			}
			o.Retract = &tw
		}
		req.Ops = append(req.Ops, o)
	}
	return req, nil
}

type jsonAttrOp struct {
	Op          string `json:"op"`
	Id          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Cardinality string `json:"cardinality,omitempty"`
	ValueType   string `json:"value_type,omitempty"`
	Indexed     bool   `json:"indexed,omitempty"`
	Unique      bool   `json:"unique,omitempty"`
	WithHistory bool   `json:"with_history,omitempty"`
}

// jsonAttrTxRequest is §6.4's `{ attrs: [...] }` schema shape.
type jsonAttrTxRequest struct {
	Attrs []jsonAttrOp `json:"attrs"`
}

func cardinalityFromString(s string) (value.Cardinality, error) {
	switch s {
	case "", "one":
		return value.CardinalityOne, nil
	case "many":
		return value.CardinalityMany, nil
	default:
		return 0, fmt.Errorf("unknown cardinality %q", s)
	}
}

func valueTypeFromString(s string) (value.ValueType, error) {
	switch s {
	case "", "any":
		return value.ValueTypeAny, nil
	case "bool":
		return value.ValueTypeBool, nil
	case "int":
		return value.ValueTypeInt, nil
	case "float":
		return value.ValueTypeFloat, nil
	case "string":
		return value.ValueTypeString, nil
	case "bytes":
		return value.ValueTypeBytes, nil
	case "keyword":
		return value.ValueTypeKeyword, nil
	case "entity_ref":
		return value.ValueTypeEntityRef, nil
	case "list":
		return value.ValueTypeList, nil
	default:
		return 0, fmt.Errorf("unknown value_type %q", s)
	}
}

func toAttrTxRequest(j jsonAttrTxRequest) (transact.AttrTxRequest, error) {
	var req transact.AttrTxRequest
	for i, a := range j.Attrs {
		switch a.Op {
		case "install":
			card, err := cardinalityFromString(a.Cardinality)
			if err != nil {
				return req, fmt.Errorf("attrs[%d]: %w", i, err)
			}
			vt, err := valueTypeFromString(a.ValueType)
			if err != nil {
				return req, fmt.Errorf("attrs[%d]: %w", i, err)
			}
			req.Ops = append(req.Ops, transact.AttrOp{
				Kind: transact.AttrInstall,
				Attr: value.Attribute{
					Name:        a.Name,
					Cardinality: card,
					ValueType:   vt,
					Indexed:     a.Indexed,
					Unique:      a.Unique,
					WithHistory: a.WithHistory,
				},
			})
		case "retract":
			req.Ops = append(req.Ops, transact.AttrOp{Kind: transact.AttrRetractOp, Id: value.AttrId(a.Id)})
		default:
			return req, fmt.Errorf("attrs[%d]: unknown op %q", i, a.Op)
		}
	}
	return req, nil
}
