package pedigree

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/matthewbaird/pedigree/internal/legend"
)

// ErrNodeExists is returned when adding a node whose ID is taken.
var ErrNodeExists = errors.New("pedigree: node already exists")

// Node is the stored form of one graph node.
type Node struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Relations  Relations  `json:"relations,omitzero"`
}

// Document is the stored pedigree. The editor persists it as an opaque blob.
type Document struct {
	Nodes []Node `json:"nodes"`
}

// DecodeDocument parses a stored pedigree. An empty blob is an empty
// pedigree.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding pedigree: %w", err)
	}
	return doc, nil
}

// Graph is the property store for the nodes of one pedigree. Topology lives
// in the canvas layer and reaches the graph only as per-node Relations.
type Graph struct {
	legends *legend.Set
	nodes   map[string]*Person
	order   []string
}

// NewGraph returns an empty graph whose people register terms in legends.
func NewGraph(legends *legend.Set) *Graph {
	return &Graph{legends: legends, nodes: make(map[string]*Person)}
}

// Legends returns the session legends.
func (g *Graph) Legends() *legend.Set { return g.legends }

// Add creates an empty person with id.
func (g *Graph) Add(id string) (*Person, error) {
	if _, ok := g.nodes[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeExists, id)
	}
	p := newPerson(id, g.legends)
	g.nodes[id] = p
	g.order = append(g.order, id)
	return p, nil
}

// Person returns the person with id.
func (g *Graph) Person(id string) (*Person, error) {
	p, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return p, nil
}

// Remove deletes the person with id and releases its legend cases.
func (g *Graph) Remove(id string) error {
	p, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	p.ClearTerms()
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(k string) bool { return k == id })
	return nil
}

// People returns every person in insertion order.
func (g *Graph) People() []*Person {
	out := make([]*Person, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Export returns the stored form of the graph.
func (g *Graph) Export() Document {
	doc := Document{Nodes: make([]Node, 0, len(g.order))}
	for _, p := range g.People() {
		doc.Nodes = append(doc.Nodes, Node{
			ID:         p.ID(),
			Type:       p.Type(),
			Properties: p.Properties(),
			Relations:  p.Relations(),
		})
	}
	return doc
}

// Load replaces the graph with doc. Setter warnings for individual nodes are
// joined into the returned error; the nodes are still loaded.
func (g *Graph) Load(doc Document) error {
	for _, p := range g.People() {
		p.ClearTerms()
	}
	g.nodes = make(map[string]*Person, len(doc.Nodes))
	g.order = g.order[:0]

	var errs []error
	for _, n := range doc.Nodes {
		p, err := g.Add(n.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.SetRelations(n.Relations)
		if err := p.Assign(n.Properties); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n.ID, err))
		}
	}
	return errors.Join(errs...)
}
