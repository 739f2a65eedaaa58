package saga

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fortressi/saga/dag"
	"github.com/fortressi/saga/set"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/topo"
)

// Plan is the execution graph of an orchestrator: one node per step, with
// an edge from every step to the one declared after it.
type Plan struct {
	name  string
	graph *dag.Graph
	index map[int64]int // graph node ID -> step position
	names []StepName
	order []int
}

func newPlan(name string, steps []Step) (*Plan, error) {
	p := &Plan{
		name:  name,
		graph: dag.New(),
		index: make(map[int64]int, len(steps)),
		names: make([]StepName, len(steps)),
	}
	if err := p.graph.SetAttribute(encoding.Attribute{Key: "rankdir", Value: "LR"}); err != nil {
		return nil, err
	}

	seen := &set.Set[StepName]{}
	var prev graph.Node
	for i, step := range steps {
		if step == nil {
			return nil, fmt.Errorf("%w: step #%d is nil", ErrInvalidStep, i)
		}
		name := step.Name()
		if name == "" {
			return nil, fmt.Errorf("%w: step #%d has no name", ErrInvalidStep, i)
		}
		if !seen.Insert(name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStep, name)
		}

		node, err := p.graph.AddLabeledNode(
			encoding.Attribute{Key: "label", Value: strconv.Quote(string(name))},
			encoding.Attribute{Key: "index", Value: strconv.Itoa(i)},
		)
		if err != nil {
			return nil, fmt.Errorf("add node for step %q: %w", name, err)
		}
		p.index[node.ID()] = i
		p.names[i] = name

		if prev != nil {
			if err := p.graph.Connect(prev.ID(), node.ID()); err != nil {
				return nil, fmt.Errorf("connect step %q: %w", name, err)
			}
		}
		prev = node
	}

	order, err := p.topologicalOrder()
	if err != nil {
		return nil, err
	}
	p.order = order
	return p, nil
}

// topologicalOrder returns step positions in execution order.
func (p *Plan) topologicalOrder() ([]int, error) {
	sorted, err := topo.SortStabilized(p.graph, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].ID() < nodes[j].ID()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("topological sort failed (cycle detected?): %w", err)
	}

	order := make([]int, len(sorted))
	for i, node := range sorted {
		order[i] = p.index[node.ID()]
	}
	return order, nil
}

// Order returns step positions in the order they are executed.
func (p *Plan) Order() []int {
	return append([]int(nil), p.order...)
}

// Steps returns the step names in execution order.
func (p *Plan) Steps() []StepName {
	names := make([]StepName, len(p.order))
	for i, idx := range p.order {
		names[i] = p.names[idx]
	}
	return names
}

// Len returns the number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.names)
}

// ExportToDot renders the plan in Graphviz .dot format.
func (p *Plan) ExportToDot() (string, error) {
	return p.graph.ExportToDot(p.name)
}
