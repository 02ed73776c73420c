// Package fstio renders a compiled graph as OpenFST-style text transducers,
// one combined and one split per intent, along with their symbol tables.
package fstio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
)

const defaultEps = "<eps>"

// Options configures FST text rendering.
type Options struct {
	// Eps names the epsilon symbol; empty defaults to "<eps>".
	Eps string

	// NoWeight omits weights from transition lines entirely. Weights are
	// included by default.
	NoWeight bool

	// DefaultWeight is used for edges with no weight of their own.
	DefaultWeight float64
}

func (o Options) eps() string {
	if o.Eps == "" {
		return defaultEps
	}
	return o.Eps
}

// Result is one rendered transducer and the symbol tables its transitions
// reference.
type Result struct {
	Text           string
	Symbols        map[string]int
	InputSymbols   map[string]int
	OutputSymbols  map[string]int
}

// edgeBFS walks g's edges breadth-first from start, the way nx.edge_bfs does:
// every reachable edge is yielded exactly once, including edges back into an
// already-visited node, and nodes are expanded in the order their edges are
// first reached.
func edgeBFS(g *graph.Graph, start int) []graph.Edge {
	var out []graph.Edge
	visitedNodes := map[int]bool{start: true}
	visitedEdges := map[[2]int]bool{}
	queue := []int{start}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(n) {
			key := [2]int{e.From, e.To}
			if visitedEdges[key] {
				continue
			}
			visitedEdges[key] = true
			out = append(out, e)
			if !visitedNodes[e.To] {
				visitedNodes[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return out
}

func orOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func internSymbol(symbols map[string]int, sym string) int {
	if id, ok := symbols[sym]; ok {
		return id
	}
	id := len(symbols)
	symbols[sym] = id
	return id
}

func renderTransitions(g *graph.Graph, edges []graph.Edge, opts Options) (string, map[string]int, map[string]int, map[string]int) {
	eps := opts.eps()
	symbols := map[string]int{eps: 0}
	inputSymbols := map[string]int{}
	outputSymbols := map[string]int{}
	stateMap := map[int]int{}
	finalStates := map[int]bool{}

	nextState := func(n int) int {
		if s, ok := stateMap[n]; ok {
			return s
		}
		s := len(stateMap)
		stateMap[n] = s
		return s
	}

	var b strings.Builder
	for _, e := range edges {
		fromState := nextState(e.From)
		toState := nextState(e.To)

		ilabel := orOr(e.ILabel, eps)
		olabel := orOr(e.OLabel, eps)

		internSymbol(symbols, ilabel)
		inputSymbols[ilabel] = symbols[ilabel]
		internSymbol(symbols, olabel)
		outputSymbols[olabel] = symbols[olabel]

		if !opts.NoWeight {
			weight := opts.DefaultWeight
			if e.HasWeight {
				weight = e.Weight
			}
			fmt.Fprintf(&b, "%d %d %s %s %v\n", fromState, toState, ilabel, olabel, weight)
		} else {
			fmt.Fprintf(&b, "%d %d %s %s\n", fromState, toState, ilabel, olabel)
		}

		if g.Node(e.From).Final {
			finalStates[fromState] = true
		}
		if g.Node(e.To).Final {
			finalStates[toState] = true
		}
	}

	var finals []int
	for s := range finalStates {
		finals = append(finals, s)
	}
	sort.Ints(finals)
	for _, s := range finals {
		fmt.Fprintf(&b, "%d\n", s)
	}

	return b.String(), symbols, inputSymbols, outputSymbols
}

// Graph renders the entire graph, starting from its start node, as a single
// OpenFST text transducer.
func Graph(g *graph.Graph, opts Options) (Result, error) {
	start := g.Start()
	if start < 0 {
		return Result{}, fmt.Errorf("graph has no start node")
	}
	edges := edgeBFS(g, start)
	text, symbols, in, out := renderTransitions(g, edges, opts)
	return Result{Text: text, Symbols: symbols, InputSymbols: in, OutputSymbols: out}, nil
}

// ByIntent renders one OpenFST text transducer per intent, keyed by intent
// name, by edge-BFS-walking from each intent-selector node the start node
// reaches via a "__label__<name>" edge.
func ByIntent(g *graph.Graph, opts Options) (map[string]Result, error) {
	start := g.Start()
	if start < 0 {
		return nil, fmt.Errorf("graph has no start node")
	}

	results := map[string]Result{}
	for _, e := range g.OutEdges(start) {
		if !strings.HasPrefix(e.OLabel, "__label__") {
			continue
		}
		intentName := e.OLabel[len("__label__"):]
		edges := edgeBFS(g, e.To)
		text, symbols, in, out := renderTransitions(g, edges, opts)
		results[intentName] = Result{Text: text, Symbols: symbols, InputSymbols: in, OutputSymbols: out}
	}
	return results, nil
}

// WriteSymbols renders a symbol table in the "symbol id\n" per-line format
// OpenFST's fstcompile expects for --isymbols/--osymbols files.
func WriteSymbols(symbols map[string]int) string {
	type pair struct {
		sym string
		id  int
	}
	pairs := make([]pair, 0, len(symbols))
	for s, id := range symbols {
		pairs = append(pairs, pair{s, id})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s %d\n", p.sym, p.id)
	}
	return b.String()
}
