package graph

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/classic.yaml
var classicFixture []byte

// Fixture is the YAML layout of a graph loaded with LoadYAML.
type Fixture struct {
	Name     string          `yaml:"name"`
	Vertices []FixtureVertex `yaml:"vertices"`
	Edges    []FixtureEdge   `yaml:"edges"`
}

type FixtureVertex struct {
	ID         string         `yaml:"id"`
	Properties map[string]any `yaml:"properties"`
}

type FixtureEdge struct {
	ID         string         `yaml:"id"`
	Out        string         `yaml:"out"`
	In         string         `yaml:"in"`
	Label      string         `yaml:"label"`
	Properties map[string]any `yaml:"properties"`
}

// LoadYAML decodes a fixture from r and commits it into store in a single
// transaction. Nothing is written if any element is invalid.
func LoadYAML(r io.Reader, store *Store) error {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	return f.Load(store)
}

// LoadFile loads a YAML fixture from path.
func LoadFile(path string, store *Store) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	return LoadYAML(file, store)
}

// Load commits the fixture into store.
func (f *Fixture) Load(store *Store) error {
	g := Open(context.Background(), store)
	g.AutoStartTransaction(true)
	defer g.Close()

	for i, fv := range f.Vertices {
		if _, err := g.AddVertex(fv.ID, fv.Properties); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	for i, fe := range f.Edges {
		out, ok := g.Vertex(fe.Out)
		if !ok {
			return fmt.Errorf("edge %d: %w: %s", i, ErrVertexNotFound, fe.Out)
		}
		in, ok := g.Vertex(fe.In)
		if !ok {
			return fmt.Errorf("edge %d: %w: %s", i, ErrVertexNotFound, fe.In)
		}
		if _, err := g.AddEdge(fe.ID, out, in, fe.Label, fe.Properties); err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return g.Commit()
}

// NewClassicStore returns a store holding the classic six vertex graph:
// marko, vadas, lop, josh, ripple and peter with ids 0-5 and edges 6-11.
func NewClassicStore(name string) (*Store, error) {
	store := NewStore(name)
	if err := LoadYAML(bytes.NewReader(classicFixture), store); err != nil {
		return nil, err
	}
	return store, nil
}
