package representation

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/result"
)

// DefaultBaseURI prefixes the self URIs of nodes and relationships.
const DefaultBaseURI = "http://localhost:7474/db/data/"

// Converter maps result values to representations.
type Converter struct {
	baseURI string
	logger  *slog.Logger
}

// NewConverter creates a converter building URIs under baseURI. An empty
// baseURI means DefaultBaseURI.
func NewConverter(handler slog.Handler, baseURI string) *Converter {
	_, logger := helpers.SetupLogger(handler, "representation", "Converter")
	if baseURI == "" {
		baseURI = DefaultBaseURI
	}
	if !strings.HasSuffix(baseURI, "/") {
		baseURI += "/"
	}
	return &Converter{baseURI: baseURI, logger: logger}
}

// BaseURI returns the prefix used for element URIs.
func (c *Converter) BaseURI() string {
	return c.baseURI
}

// Convert maps v to its representation. Lazy sequences are drained here, so
// an error raised while producing an item is returned as is. Values with no
// representation yield ErrUnsupportedResult.
func (c *Converter) Convert(v result.Value) (Representation, error) {
	switch v.Kind() {
	case result.KindScalar:
		if f, ok := v.Scalar().(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			// JSON has no encoding for these
			return nil, fmt.Errorf("%w: non-finite float %v", platform.ErrUnsupportedResult, f)
		}
		return ValueRepresentation{Value: v.Scalar()}, nil
	case result.KindSequence:
		return c.convertSequence(v)
	case result.KindMapping:
		return c.convertMapping(v.Entries())
	case result.KindElement:
		return c.convertElement(v.Element())
	case result.KindTable:
		return c.convertTable(v.Table())
	case result.KindGraph:
		return ValueRepresentation{Value: v.Graph().String()}, nil
	case result.KindUnsupported:
		return nil, fmt.Errorf("%w: %s", platform.ErrUnsupportedResult, v.TypeName())
	default:
		return nil, fmt.Errorf("%w: kind %s", platform.ErrUnsupportedResult, v.Kind())
	}
}

func (c *Converter) convertSequence(v result.Value) (Representation, error) {
	list := ListRepresentation{}
	for item, err := range v.Items() {
		if err != nil {
			return nil, err
		}
		rep, err := c.Convert(item)
		if err != nil {
			return nil, err
		}
		list = append(list, rep)
	}
	c.logger.Debug("sequence converted", "length", len(list))
	return list, nil
}

func (c *Converter) convertMapping(entries []result.Entry) (Representation, error) {
	out := make(MappingRepresentation, 0, len(entries))
	for _, e := range entries {
		rep, err := c.Convert(e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		out = append(out, MappingEntry{Key: e.Key, Value: rep})
	}
	return out, nil
}

func (c *Converter) convertElement(el graph.Element) (Representation, error) {
	switch e := el.(type) {
	case *graph.Vertex:
		return c.Node(e)
	case *graph.Edge:
		return c.Relationship(e)
	default:
		return nil, fmt.Errorf("%w: %T", platform.ErrUnsupportedResult, el)
	}
}

func (c *Converter) convertTable(t *graph.Table) (Representation, error) {
	columns := t.Columns()
	list := ListRepresentation{}
	for i, row := range t.Rows() {
		out := make(MappingRepresentation, 0, len(columns))
		for j, col := range columns {
			rep, err := c.Convert(result.FromGo(row[j]))
			if err != nil {
				return nil, fmt.Errorf("table row %d column %q: %w", i, col, err)
			}
			out = append(out, MappingEntry{Key: col, Value: rep})
		}
		list = append(list, out)
	}
	return list, nil
}

func (c *Converter) nodeURI(id string) string {
	return c.baseURI + "node/" + id
}

func (c *Converter) relationshipURI(id string) string {
	return c.baseURI + "relationship/" + id
}

func (c *Converter) data(el graph.Element) (map[string]Representation, error) {
	props := el.Properties()
	data := make(map[string]Representation, len(props))
	for k, p := range props {
		rep, err := c.Convert(result.FromGo(p))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		data[k] = rep
	}
	return data, nil
}

// Node builds the representation of a vertex.
func (c *Converter) Node(v *graph.Vertex) (*NodeRepresentation, error) {
	data, err := c.data(v)
	if err != nil {
		return nil, err
	}
	self := c.nodeURI(v.ID())
	return &NodeRepresentation{
		Self:                  self,
		Data:                  data,
		Metadata:              NodeMetadata{ID: v.ID()},
		Properties:            self + "/properties",
		Property:              self + "/properties/{key}",
		OutgoingRelationships: self + "/relationships/out",
		IncomingRelationships: self + "/relationships/in",
		AllRelationships:      self + "/relationships/all",
	}, nil
}

// Relationship builds the representation of an edge.
func (c *Converter) Relationship(e *graph.Edge) (*RelationshipRepresentation, error) {
	data, err := c.data(e)
	if err != nil {
		return nil, err
	}
	self := c.relationshipURI(e.ID())
	return &RelationshipRepresentation{
		Self:       self,
		Data:       data,
		Start:      c.nodeURI(e.OutID()),
		End:        c.nodeURI(e.InID()),
		RelType:    e.Label(),
		Metadata:   RelationshipMetadata{ID: e.ID(), Type: e.Label()},
		Properties: self + "/properties",
		Property:   self + "/properties/{key}",
	}, nil
}
