package dag

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is a directed graph whose nodes and edges carry DOT attributes.
type Graph struct {
	*simple.DirectedGraph
	attrs encoding.Attributes
}

func New() *Graph {
	return &Graph{DirectedGraph: simple.NewDirectedGraph()}
}

func (g *Graph) NewNode() graph.Node {
	return &Node{Node: g.DirectedGraph.NewNode()}
}

// AddLabeledNode adds a new node carrying the given DOT attributes.
func (g *Graph) AddLabeledNode(attrs ...encoding.Attribute) (*Node, error) {
	n := &Node{Node: g.DirectedGraph.NewNode()}
	for _, attr := range attrs {
		if err := n.SetAttribute(attr); err != nil {
			return nil, err
		}
	}
	g.AddNode(n)
	return n, nil
}

// Attribute returns the value of a node attribute, or "" if unset.
func (g *Graph) Attribute(id int64, key string) string {
	n, ok := g.Node(id).(*Node)
	if !ok {
		return ""
	}
	for _, attr := range n.attrs.Attributes() {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

// DOTAttributers implements dot.Attributers.
func (g *Graph) DOTAttributers() (encoding.Attributer, encoding.Attributer, encoding.Attributer) {
	return &g.attrs, &encoding.Attributes{}, &encoding.Attributes{}
}

func (g *Graph) Attributes() []encoding.Attribute {
	return g.attrs.Attributes()
}

func (g *Graph) SetAttribute(attr encoding.Attribute) error {
	return g.attrs.SetAttribute(attr)
}

type Node struct {
	graph.Node
	attrs encoding.Attributes
}

func (n *Node) Attributes() []encoding.Attribute {
	return n.attrs.Attributes()
}

func (n *Node) SetAttribute(attr encoding.Attribute) error {
	return n.attrs.SetAttribute(attr)
}

// ExportToDot exports the graph to Graphviz .dot format.
func (g *Graph) ExportToDot(name string) (string, error) {
	data, err := dot.Marshal(g, name, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export graph to DOT format: %w", err)
	}
	return string(data), nil
}

func (g *Graph) NewEdge(from, to graph.Node) graph.Edge {
	return &edge{Edge: g.DirectedGraph.NewEdge(from, to)}
}

// Connect adds an edge between two existing nodes with the given DOT attributes.
func (g *Graph) Connect(from, to int64, attrs ...encoding.Attribute) error {
	f, t := g.Node(from), g.Node(to)
	if f == nil || t == nil {
		return fmt.Errorf("node does not exist")
	}
	e := &edge{Edge: g.DirectedGraph.NewEdge(f, t)}
	for _, attr := range attrs {
		if err := e.SetAttribute(attr); err != nil {
			return err
		}
	}
	g.SetEdge(e)
	return nil
}

type edge struct {
	graph.Edge
	attrs encoding.Attributes
}

func (e *edge) Attributes() []encoding.Attribute {
	return e.attrs.Attributes()
}

func (e *edge) SetAttribute(attr encoding.Attribute) error {
	return e.attrs.SetAttribute(attr)
}
