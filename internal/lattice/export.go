package lattice

import (
	"io"

	"github.com/gocarina/gocsv"
)

// WriteNodesCSV writes the evaluated nodes of r as CSV, one row per lattice
// position, in evaluation order.
func WriteNodesCSV(w io.Writer, r *Result) error {
	nodes := r.Nodes
	return gocsv.Marshal(&nodes, w)
}

// WriteLadderCSV writes ladder rows as CSV.
func WriteLadderCSV(w io.Writer, rows []LadderRow) error {
	return gocsv.Marshal(&rows, w)
}
