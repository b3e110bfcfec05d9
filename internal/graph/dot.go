package graph

import (
	"io"

	"github.com/emicklei/dot"
)

// ToDOT converts g into a Graphviz digraph. Nodes are drawn as boxes since
// their labels span several lines.
func ToDOT(g *Graph) *dot.Graph {
	d := dot.NewGraph(dot.Directed)
	d.Attr("rankdir", g.RankDir())

	nodes := make(map[string]dot.Node, len(g.nodes))
	lookup := func(id string) dot.Node {
		if n, ok := nodes[id]; ok {
			return n
		}
		n := d.Node(id)
		nodes[id] = n
		return n
	}

	for _, n := range g.nodes {
		lookup(n.ID).Label(n.Label).Attr("shape", "box")
	}
	for _, e := range g.edges {
		if e.Label != "" {
			d.Edge(lookup(e.From), lookup(e.To), e.Label)
		} else {
			d.Edge(lookup(e.From), lookup(e.To))
		}
	}
	return d
}

// RenderDOT returns g in DOT syntax.
func RenderDOT(g *Graph) string {
	return ToDOT(g).String()
}

// WriteDOT writes g in DOT syntax to w.
func WriteDOT(w io.Writer, g *Graph) error {
	_, err := io.WriteString(w, RenderDOT(g))
	return err
}
