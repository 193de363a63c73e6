// Package representation turns script results into JSON-ready values. The
// node and relationship shapes follow the REST format of graph databases:
// every element carries a self URI, its property data and URIs to related
// resources.
package representation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Type tags a representation.
type Type string

const (
	TypeValue        Type = "value"
	TypeList         Type = "list"
	TypeMapping      Type = "map"
	TypeNode         Type = "node"
	TypeRelationship Type = "relationship"
)

// Representation is a converted result. It marshals with encoding/json and
// needs no further inspection by the caller.
type Representation interface {
	json.Marshaler
	Type() Type
}

// ValueRepresentation is a scalar: null, bool, int64, float64 or string.
type ValueRepresentation struct {
	Value any
}

func (r ValueRepresentation) Type() Type { return TypeValue }

// MarshalJSON keeps integral floats recognisable as floats ("1.0", not "1").
func (r ValueRepresentation) MarshalJSON() ([]byte, error) {
	if f, ok := r.Value.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return []byte(strconv.FormatFloat(f, 'f', 1, 64)), nil
	}
	return json.Marshal(r.Value)
}

// ListRepresentation is an ordered sequence.
type ListRepresentation []Representation

func (r ListRepresentation) Type() Type { return TypeList }

func (r ListRepresentation) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Representation(r))
}

// MappingEntry is one key of a MappingRepresentation.
type MappingEntry struct {
	Key   string
	Value Representation
}

// MappingRepresentation is a mapping whose keys marshal in insertion order.
type MappingRepresentation []MappingEntry

func (r MappingRepresentation) Type() Type { return TypeMapping }

// Get returns the value stored under key.
func (r MappingRepresentation) Get(key string) (Representation, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (r MappingRepresentation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NodeMetadata identifies a node.
type NodeMetadata struct {
	ID string `json:"id"`
}

// NodeRepresentation is a vertex.
type NodeRepresentation struct {
	Self                  string                    `json:"self"`
	Data                  map[string]Representation `json:"data"`
	Metadata              NodeMetadata              `json:"metadata"`
	Properties            string                    `json:"properties"`
	Property              string                    `json:"property"`
	OutgoingRelationships string                    `json:"outgoing_relationships"`
	IncomingRelationships string                    `json:"incoming_relationships"`
	AllRelationships      string                    `json:"all_relationships"`
}

func (r *NodeRepresentation) Type() Type { return TypeNode }

func (r *NodeRepresentation) MarshalJSON() ([]byte, error) {
	type plain NodeRepresentation
	return json.Marshal((*plain)(r))
}

// RelationshipMetadata identifies a relationship and its label.
type RelationshipMetadata struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// RelationshipRepresentation is an edge.
type RelationshipRepresentation struct {
	Self       string                    `json:"self"`
	Data       map[string]Representation `json:"data"`
	Start      string                    `json:"start"`
	End        string                    `json:"end"`
	RelType    string                    `json:"type"`
	Metadata   RelationshipMetadata      `json:"metadata"`
	Properties string                    `json:"properties"`
	Property   string                    `json:"property"`
}

func (r *RelationshipRepresentation) Type() Type { return TypeRelationship }

func (r *RelationshipRepresentation) MarshalJSON() ([]byte, error) {
	type plain RelationshipRepresentation
	return json.Marshal((*plain)(r))
}
