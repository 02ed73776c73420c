// Package graph holds the compiled transducer a grammar is reduced to
// (graph.go) and the compiler that builds one from a parsed, resolved
// grammar (compile.go).
package graph

// Node carries the side attributes a graph node may have: at most one start
// node, at most one final node, and an optional word string on nodes reached
// by consuming a grammar word.
type Node struct {
	Start bool
	Final bool
	Word  string
}

// Edge is a single transition. ILabel empty means epsilon on input; OLabel
// empty means no output. Weight is only meaningful when HasWeight is set,
// which is true only for intent-selector edges out of the start node when
// weighting is enabled.
type Edge struct {
	From, To  int
	ILabel    string
	OLabel    string
	Weight    float64
	HasWeight bool

	// SentenceCount is the per-intent expansion count an intent-selector
	// edge was weighted from, carried alongside Weight the way the source
	// implementation stores a parallel "sentence_count" edge attribute. Only
	// meaningful when HasSentenceCount is set.
	SentenceCount    int
	HasSentenceCount bool
}

// Graph is an adjacency-list directed graph with monotonically assigned
// integer node identifiers, matching the networkx DiGraph the source
// implementation builds incrementally via add_node/add_edge.
type Graph struct {
	nodes []Node
	edges []Edge
	out   [][]int // out[n] holds indices into edges, in insertion order

	start int
	final int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{start: -1, final: -1}
}

// AddNode creates a new node and returns its id.
func (g *Graph) AddNode() int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{})
	g.out = append(g.out, nil)
	return id
}

// AddEdge records a transition from -> to with the given labels and
// (optional) weight, returning the new edge's index.
func (g *Graph) AddEdge(from, to int, ilabel, olabel string, weight float64, hasWeight bool) int {
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, ILabel: ilabel, OLabel: olabel, Weight: weight, HasWeight: hasWeight})
	g.out[from] = append(g.out[from], idx)
	return idx
}

// SetStart marks node n as the graph's unique start node.
func (g *Graph) SetStart(n int) { g.nodes[n].Start = true; g.start = n }

// SetFinal marks node n as the graph's unique final node.
func (g *Graph) SetFinal(n int) { g.nodes[n].Final = true; g.final = n }

// SetEdgeSentenceCount records the per-intent expansion count an
// intent-selector edge was weighted from.
func (g *Graph) SetEdgeSentenceCount(edgeIdx, count int) {
	g.edges[edgeIdx].SentenceCount = count
	g.edges[edgeIdx].HasSentenceCount = true
}

// SetWord records the input word a node was created for.
func (g *Graph) SetWord(n int, word string) { g.nodes[n].Word = word }

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges in the graph.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the attributes of node n.
func (g *Graph) Node(n int) Node { return g.nodes[n] }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// Out returns the indices of edges leaving node n, in insertion order.
func (g *Graph) Out(n int) []int { return g.out[n] }

// OutEdges returns the edges leaving node n, in insertion order.
func (g *Graph) OutEdges(n int) []Edge {
	idxs := g.out[n]
	edges := make([]Edge, len(idxs))
	for i, idx := range idxs {
		edges[i] = g.edges[idx]
	}
	return edges
}

// Start returns the start node id, or -1 if unset.
func (g *Graph) Start() int { return g.start }

// Final returns the final node id, or -1 if unset.
func (g *Graph) Final() int { return g.final }

// Nodes returns a copy of the full node attribute slice, indexed by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the full edge slice, indexed by insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}
