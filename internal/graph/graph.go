// Package graph accumulates the node/edge trail of a lattice evaluation.
//
// A Builder is append-only: nodes are keyed by id and edges by their
// (from, to) pair, so emitting the same lattice position twice leaves a
// single node. Build returns an immutable snapshot for renderers.
package graph

// Layout hints understood by renderers.
const (
	RankLeftRight = "LR"
	RankTopBottom = "TB"
)

// Node is a labelled vertex.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Edge is a directed connection between two node ids.
type Edge struct {
	From  string `json:"from" csv:"from"`
	To    string `json:"to" csv:"to"`
	Label string `json:"label,omitempty" csv:"label"`
}

type edgeKey struct {
	from, to string
}

// Builder collects nodes and edges for one pricing call. It is not safe for
// concurrent use.
type Builder struct {
	rankDir   string
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	edgeIndex map[edgeKey]int
}

// NewBuilder returns an empty builder laid out left to right.
func NewBuilder() *Builder {
	return &Builder{
		rankDir:   RankLeftRight,
		nodeIndex: make(map[string]int),
		edgeIndex: make(map[edgeKey]int),
	}
}

// SetRankDir sets the layout hint passed on to renderers.
func (b *Builder) SetRankDir(dir string) {
	b.rankDir = dir
}

// AddNode records a node. A repeated id keeps its original position and
// takes the newer label.
func (b *Builder) AddNode(id, label string) {
	if i, ok := b.nodeIndex[id]; ok {
		b.nodes[i].Label = label
		return
	}
	b.nodeIndex[id] = len(b.nodes)
	b.nodes = append(b.nodes, Node{ID: id, Label: label})
}

// AddEdge records a directed edge. A repeated (from, to) pair keeps a single
// edge and takes the newer label.
func (b *Builder) AddEdge(from, to, label string) {
	key := edgeKey{from, to}
	if i, ok := b.edgeIndex[key]; ok {
		b.edges[i].Label = label
		return
	}
	b.edgeIndex[key] = len(b.edges)
	b.edges = append(b.edges, Edge{From: from, To: to, Label: label})
}

// Build returns a snapshot of everything added so far.
func (b *Builder) Build() *Graph {
	g := &Graph{
		rankDir: b.rankDir,
		nodes:   make([]Node, len(b.nodes)),
		edges:   make([]Edge, len(b.edges)),
		index:   make(map[string]int, len(b.nodes)),
	}
	copy(g.nodes, b.nodes)
	copy(g.edges, b.edges)
	for id, i := range b.nodeIndex {
		g.index[id] = i
	}
	return g
}

// Graph is an immutable set of nodes and edges.
type Graph struct {
	rankDir string
	nodes   []Node
	edges   []Edge
	index   map[string]int
}

// RankDir returns the layout hint.
func (g *Graph) RankDir() string { return g.rankDir }

// Nodes returns the nodes in first-emission order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the edges in first-emission order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Children returns the outgoing edges of id.
func (g *Graph) Children(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns the ids of nodes without incoming edges.
func (g *Graph) Roots() []string {
	incoming := make(map[string]bool, len(g.edges))
	for _, e := range g.edges {
		incoming[e.To] = true
	}
	var roots []string
	for _, n := range g.nodes {
		if !incoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
