package present

import (
	"fmt"

	"github.com/TobiSchelling/storedash/internal/query"
)

// FlowNode is one node of a two-level flow diagram.
type FlowNode struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Level int    `json:"level"`
}

// FlowLink is a weighted edge from a first-level node to a second-level one.
type FlowLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// FlowDiagram is the node/link structure a Sankey chart consumes.
type FlowDiagram struct {
	Nodes []FlowNode `json:"nodes"`
	Links []FlowLink `json:"links"`
}

// Labels returns the node labels indexed by node index.
func (f FlowDiagram) Labels() []string {
	out := make([]string, len(f.Nodes))
	for _, n := range f.Nodes {
		out[n.Index] = n.Label
	}
	return out
}

// Flow builds a bipartite flow diagram from a result grouped by (from, to).
// First-level nodes take indices [0, n) and second-level nodes [n, n+m), so
// a label present in both columns yields two distinct nodes.
func Flow(res *query.Result, from, to, measure string) (FlowDiagram, error) {
	fi, ti, mi := res.DimIndex(from), res.DimIndex(to), res.MeasureIndex(measure)
	if fi < 0 || ti < 0 {
		return FlowDiagram{}, fmt.Errorf("flow: result is not grouped by %q and %q", from, to)
	}
	if mi < 0 {
		return FlowDiagram{}, fmt.Errorf("flow: unknown measure %q", measure)
	}

	var firsts, seconds []string
	firstIdx := map[string]int{}
	secondIdx := map[string]int{}
	for _, r := range res.Rows {
		a, b := r.Key[fi].String(), r.Key[ti].String()
		if _, ok := firstIdx[a]; !ok {
			firstIdx[a] = len(firsts)
			firsts = append(firsts, a)
		}
		if _, ok := secondIdx[b]; !ok {
			secondIdx[b] = len(seconds)
			seconds = append(seconds, b)
		}
	}

	offset := len(firsts)
	var f FlowDiagram
	for i, l := range firsts {
		f.Nodes = append(f.Nodes, FlowNode{Index: i, Label: l, Level: 0})
	}
	for i, l := range seconds {
		f.Nodes = append(f.Nodes, FlowNode{Index: offset + i, Label: l, Level: 1})
	}
	for _, r := range res.Rows {
		f.Links = append(f.Links, FlowLink{
			Source: firstIdx[r.Key[fi].String()],
			Target: offset + secondIdx[r.Key[ti].String()],
			Value:  r.Values[mi],
		})
	}
	return f, nil
}
