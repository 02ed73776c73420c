// Package ngram builds a word-only projection of a compiled graph and
// counts ordered n-grams per intent, for language-model training data
// export.
package ngram

import (
	"sort"
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
	"github.com/dekarrin/voxgraph/internal/vgerr"
)

// Options configures n-gram counting.
type Options struct {
	// Order is the maximum n-gram length; zero defaults to 3.
	Order int

	// PadStart/PadEnd name the sentinel tokens substituted for the start and
	// final nodes; empty defaults to "<s>"/"</s>".
	PadStart, PadEnd string

	// Balance rescales each intent's counts by LCM(sentence counts)/count,
	// using the SentenceCount recorded on each intent-selector edge by a
	// weighted compile.
	Balance bool
}

// Count is one n-gram and how many times it occurs.
type Count struct {
	Words []string
	Count int
}

// Counts holds every n-gram tallied for one intent, up to the configured
// order.
type Counts struct {
	totals map[string]int
	words  map[string][]string
}

func newCounts() *Counts {
	return &Counts{totals: map[string]int{}, words: map[string][]string{}}
}

func ngramKey(words []string) string {
	return strings.Join(words, "\x1f")
}

func (c *Counts) add(words []string, n int) {
	if n == 0 {
		return
	}
	k := ngramKey(words)
	if _, ok := c.words[k]; !ok {
		c.words[k] = append([]string(nil), words...)
	}
	c.totals[k] += n
}

func (c *Counts) scale(multiplier int) {
	for k := range c.totals {
		c.totals[k] *= multiplier
	}
}

// Get returns the count recorded for the given n-gram.
func (c *Counts) Get(words ...string) int {
	return c.totals[ngramKey(words)]
}

// Entries returns every counted n-gram, sorted by length then lexically, for
// deterministic output.
func (c *Counts) Entries() []Count {
	out := make([]Count, 0, len(c.totals))
	for k, n := range c.totals {
		out = append(out, Count{Words: c.words[k], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Words) != len(out[j].Words) {
			return len(out[i].Words) < len(out[j].Words)
		}
		return strings.Join(out[i].Words, " ") < strings.Join(out[j].Words, " ")
	})
	return out
}

// wordGraph is the word-only projection of a compiled graph: meta nodes
// (markers, intent selectors, merge points) are clipped, reconnecting their
// predecessors directly to their successors.
type wordGraph struct {
	word map[int]string
	succ map[int]map[int]bool
	pred map[int]map[int]bool
}

func buildWordGraph(g *graph.Graph, padStart, padEnd string) *wordGraph {
	succ := map[int]map[int]bool{}
	pred := map[int]map[int]bool{}
	for n := 0; n < g.NumNodes(); n++ {
		succ[n] = map[int]bool{}
		pred[n] = map[int]bool{}
	}
	for _, e := range g.Edges() {
		succ[e.From][e.To] = true
		pred[e.To][e.From] = true
	}

	word := map[int]string{}
	for n := 0; n < g.NumNodes(); n++ {
		if w := g.Node(n).Word; w != "" {
			word[n] = w
		}
	}
	word[g.Start()] = padStart
	word[g.Final()] = padEnd

	var toRemove []int
	for n := 0; n < g.NumNodes(); n++ {
		if word[n] == "" {
			toRemove = append(toRemove, n)
		}
	}

	for _, n := range toRemove {
		for p := range pred[n] {
			for s := range succ[n] {
				succ[p][s] = true
				pred[s][p] = true
			}
			delete(succ[p], n)
		}
		for s := range succ[n] {
			delete(pred[s], n)
		}
		delete(succ, n)
		delete(pred, n)
	}

	return &wordGraph{word: word, succ: succ, pred: pred}
}

// descendants returns every node reachable from n (exclusive of n) by
// following the full compiled graph's edges, used to scope an intent's
// subgraph before it's intersected with the word graph's surviving nodes.
func descendants(g *graph.Graph, n int) map[int]bool {
	seen := map[int]bool{}
	stack := []int{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.OutEdges(cur) {
			if !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return seen
}

// CountByIntent projects g down to a word-only graph, restricts it per
// intent using the full graph's
// descendant sets, counts n-grams over each restriction, and (if enabled)
// rescales by the LCM of per-intent sentence counts recorded by a weighted
// compile.
func CountByIntent(g *graph.Graph, opts Options) (map[string]*Counts, error) {
	order := opts.Order
	if order <= 0 {
		order = 3
	}
	padStart, padEnd := opts.PadStart, opts.PadEnd
	if padStart == "" {
		padStart = "<s>"
	}
	if padEnd == "" {
		padEnd = "</s>"
	}

	start, end := g.Start(), g.Final()
	if start < 0 || end < 0 {
		return nil, vgerr.PathConsistency("graph has no start/final node")
	}

	wg := buildWordGraph(g, padStart, padEnd)

	result := map[string]*Counts{}
	sentenceCounts := map[string]int{}

	for _, e := range g.OutEdges(start) {
		if !strings.HasPrefix(e.OLabel, "__label__") {
			continue
		}
		intentName := e.OLabel[len("__label__"):]
		sentenceCount := 1
		if e.HasSentenceCount {
			sentenceCount = e.SentenceCount
		}
		sentenceCounts[intentName] = sentenceCount

		valid := map[int]bool{start: true}
		for n := range descendants(g, e.To) {
			if _, ok := wg.word[n]; ok {
				valid[n] = true
			}
		}

		counts, err := countNgrams(wg, valid, start, end, order)
		if err != nil {
			return nil, err
		}
		result[intentName] = counts
	}

	if opts.Balance && len(sentenceCounts) > 0 {
		l := 1
		for _, c := range sentenceCounts {
			l = lcm(l, c)
		}
		for name, c := range sentenceCounts {
			if counts, ok := result[name]; ok {
				counts.scale(l / c)
			}
		}
	}

	return result, nil
}

func countNgrams(wg *wordGraph, valid map[int]bool, start, end, order int) (*Counts, error) {
	nodes := make([]int, 0, len(valid))
	for n := range valid {
		nodes = append(nodes, n)
	}

	validSucc := func(n int) []int {
		var out []int
		for s := range wg.succ[n] {
			if valid[s] {
				out = append(out, s)
			}
		}
		sort.Ints(out)
		return out
	}
	validPred := func(n int) []int {
		var out []int
		for p := range wg.pred[n] {
			if valid[p] {
				out = append(out, p)
			}
		}
		sort.Ints(out)
		return out
	}

	topo, err := topoSort(nodes, validSucc, validPred)
	if err != nil {
		return nil, err
	}

	up := map[int]int{start: 1}
	for _, n := range topo {
		if n == start {
			continue
		}
		for _, p := range validPred(n) {
			up[n] += up[p]
		}
	}

	down := map[int]int{end: 1}
	for i := len(topo) - 1; i >= 0; i-- {
		n := topo[i]
		if n == end {
			continue
		}
		for _, s := range validSucc(n) {
			down[n] += down[s]
		}
	}

	counts := newCounts()
	for _, n := range nodes {
		word := wg.word[n]
		counts.add([]string{word}, up[n]*down[n])

		if order == 1 {
			continue
		}

		type frame struct {
			node  int
			ngram []string
		}
		queue := []frame{{node: n, ngram: []string{word}}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, p := range validPred(cur.node) {
				extended := append([]string{wg.word[p]}, cur.ngram...)
				counts.add(extended, up[p]*down[n])
				if len(extended) < order {
					queue = append(queue, frame{node: p, ngram: extended})
				}
			}
		}
	}

	return counts, nil
}

// topoSort performs a Kahn's-algorithm topological sort restricted to nodes,
// using only edges between members of that set.
func topoSort(nodes []int, succ, pred func(int) []int) ([]int, error) {
	indeg := map[int]int{}
	for _, n := range nodes {
		indeg[n] = len(pred(n))
	}

	var queue []int
	for _, n := range nodes {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Ints(queue)

	var order []int
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, s := range succ(n) {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
				sort.Ints(queue)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, vgerr.PathConsistency("word graph is not acyclic")
	}
	return order, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
