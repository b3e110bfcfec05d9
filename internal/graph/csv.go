package graph

import (
	"io"

	"github.com/gocarina/gocsv"
)

type nodeRow struct {
	ID       string `csv:"id"`
	Label    string `csv:"label"`
	Children int    `csv:"children"`
}

// WriteCSV writes the node table of g, one row per node in emission order.
func WriteCSV(w io.Writer, g *Graph) error {
	out := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		out[e.From]++
	}
	rows := make([]nodeRow, 0, len(g.nodes))
	for _, n := range g.nodes {
		rows = append(rows, nodeRow{ID: n.ID, Label: n.Label, Children: out[n.ID]})
	}
	return gocsv.Marshal(&rows, w)
}

// WriteEdgesCSV writes the edge table of g.
func WriteEdgesCSV(w io.Writer, g *Graph) error {
	rows := g.Edges()
	return gocsv.Marshal(&rows, w)
}
