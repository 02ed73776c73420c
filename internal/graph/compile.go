package graph

import (
	"github.com/dekarrin/voxgraph/internal/grammar"
	"github.com/dekarrin/voxgraph/internal/vgerr"
	"github.com/dekarrin/voxgraph/internal/vglog"
)

const defaultMaxExpansionDepth = 256

// Options configures the graph compiler.
type Options struct {
	// Weighted enables per-intent weight balancing (§4.F): when more than
	// one intent has sentences, each intent-selector edge's weight is set
	// from the LCM of per-intent expansion counts, normalized to sum to 1.
	Weighted bool

	// ExcludeSlotsFromCounts controls whether slot references contribute to
	// the expansion counts used for weight balancing.
	ExcludeSlotsFromCounts bool

	// MaxExpansionDepth bounds recursive rule-reference expansion; zero uses
	// a built-in default. Grammars are required to be non-recursive (graph
	// invariant 1); exceeding the bound is reported as a Recursion error
	// rather than overflowing the call stack.
	MaxExpansionDepth int

	Logger vglog.Logger
}

type compiler struct {
	g        *Graph
	repl     *grammar.Replacements
	opts     Options
	depth    int
	maxDepth int
}

// Compile builds a graph from resolved intents. Node 0 is the start node;
// one __label__<intent> edge leaves it per non-empty intent; every
// sentence's exit joins a single final node via an epsilon edge.
func Compile(intents *grammar.Intents, opts Options) (*Graph, error) {
	if intents == nil {
		return nil, vgerr.Resolve("no intents to compile")
	}

	maxDepth := opts.MaxExpansionDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxExpansionDepth
	}
	c := &compiler{g: New(), repl: intents.Replacements, opts: opts, maxDepth: maxDepth}

	root := c.g.AddNode()
	c.g.SetStart(root)

	numIntents := 0
	for _, name := range intents.Order {
		if len(intents.Sentences[name]) > 0 {
			numIntents++
		}
	}

	var weights map[string]float64
	var counts map[string]int
	if opts.Weighted {
		weights, counts = computeWeights(intents, opts.ExcludeSlotsFromCounts)
	}

	var finalStates []int
	for _, name := range intents.Order {
		sentences := intents.Sentences[name]
		if len(sentences) == 0 {
			continue
		}

		intentNode := c.g.AddNode()
		olabel := "__label__" + name
		if opts.Weighted && numIntents > 1 {
			idx := c.g.AddEdge(root, intentNode, "", olabel, weights[name], true)
			c.g.SetEdgeSentenceCount(idx, counts[name])
		} else {
			c.g.AddEdge(root, intentNode, "", olabel, 0, false)
		}

		vglog.Log(opts.Logger, "compiling intent %q (%d sentences)", name, len(sentences))

		for _, s := range sentences {
			c.depth = 0
			exit, err := c.emit(s, intentNode, name, false)
			if err != nil {
				return nil, err
			}
			finalStates = append(finalStates, exit)
		}
	}

	finalNode := c.g.AddNode()
	c.g.SetFinal(finalNode)
	for _, exit := range finalStates {
		c.g.AddEdge(exit, finalNode, "", "", 0, false)
	}

	return c.g, nil
}

// computeWeights balances intent weights by sentence-expansion count:
// intent counts are clamped to at least 1 (grammar.Counter.IntentCount
// already does this), the LCM of all counts is taken, each intent's raw
// weight is LCM/count, and the raw weights are normalized to sum to 1.
func computeWeights(intents *grammar.Intents, excludeSlots bool) (map[string]float64, map[string]int) {
	counter := grammar.NewCounter(intents.Replacements, excludeSlots)
	counts := map[string]int{}
	for _, name := range intents.Order {
		sentences := intents.Sentences[name]
		if len(sentences) == 0 {
			continue
		}
		counts[name] = counter.IntentCount(sentences, name)
	}
	if len(counts) == 0 {
		return map[string]float64{}, counts
	}

	l := 1
	for _, count := range counts {
		l = lcm(l, count)
	}

	raw := map[string]float64{}
	sum := 0.0
	for name, count := range counts {
		w := float64(l) / float64(count)
		raw[name] = w
		sum += w
	}
	if sum <= 0 {
		sum = 1
	}

	weights := map[string]float64{}
	for name, w := range raw {
		weights[name] = w / sum
	}
	return weights, counts
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

// emit recursively inserts expression into the graph starting at from and
// returns the node id the expression's output leaves from. emptySub carries
// whether an ancestor's substitution has already forced this subtree's
// output labels silent; it is combined with this node's own substitution (if
// any) into a single local flag used for the rest of this call.
func (c *compiler) emit(n *grammar.Node, from int, intentName string, emptySub bool) (int, error) {
	c.depth++
	if c.depth > c.maxDepth {
		return 0, vgerr.Recursionf("rule expansion exceeded depth %d (recursive rule reference?)", c.maxDepth)
	}
	defer func() { c.depth-- }()

	cur := from
	localEmptySub := emptySub
	if hasOwnSub(n) {
		localEmptySub = true
	}

	if n.Tag != nil {
		next := c.g.AddNode()
		c.g.AddEdge(cur, next, "", "__begin__"+n.Tag.Text, 0, false)
		cur = next
		if n.Tag.HasSub && n.Tag.Substitution != "" {
			localEmptySub = true
		}
	}

	var beginConverters []string
	if n.Tag != nil {
		beginConverters = append(beginConverters, reversedStrings(n.Tag.Converters)...)
	}
	beginConverters = append(beginConverters, reversedStrings(n.Converters)...)
	for _, name := range beginConverters {
		next := c.g.AddNode()
		c.g.AddEdge(cur, next, "", "__convert__"+name, 0, false)
		cur = next
	}

	var err error
	switch n.Kind {
	case grammar.KindGroup:
		for _, item := range n.Items {
			cur, err = c.emit(item, cur, intentName, localEmptySub)
			if err != nil {
				return 0, err
			}
		}

	case grammar.KindAlternative:
		var branchExits []int
		for _, item := range n.Items {
			exit, err := c.emit(item, cur, intentName, localEmptySub)
			if err != nil {
				return 0, err
			}
			branchExits = append(branchExits, exit)
		}
		merge := c.g.AddNode()
		for _, exit := range branchExits {
			c.g.AddEdge(exit, merge, "", "", 0, false)
		}
		cur = merge

	case grammar.KindWord:
		next := c.g.AddNode()
		c.g.SetWord(next, n.Text)
		olabel := n.Text
		if n.HasSub {
			olabel = n.Substitution
		}
		if localEmptySub {
			olabel = ""
		}
		c.g.AddEdge(cur, next, n.Text, olabel, 0, false)
		cur = next

	case grammar.KindRuleRef:
		bodies := c.repl.RuleQualified(n.GrammarName, n.RuleName, intentName)
		if len(bodies) == 0 {
			return 0, vgerr.Resolvef("unresolved rule reference <%s>", ruleRefName(n))
		}
		cur, err = c.emit(bodies[0], cur, intentName, localEmptySub)
		if err != nil {
			return 0, err
		}

	case grammar.KindSlotRef:
		values := c.repl.Slot(n.SlotName)
		if len(values) == 0 {
			return 0, vgerr.Resolvef("unresolved slot reference $%s", n.SlotName)
		}
		slotEmptySub := localEmptySub || hasOwnSub(n)
		alt := grammar.NewAlternative(values...)
		cur, err = c.emit(alt, cur, intentName, slotEmptySub)
		if err != nil {
			return 0, err
		}
	}

	if hasOwnSub(n) {
		next := c.g.AddNode()
		c.g.AddEdge(cur, next, "", n.Substitution, 0, false)
		cur = next
	}

	var endConverters []string
	endConverters = append(endConverters, n.Converters...)
	if n.Tag != nil {
		endConverters = append(endConverters, n.Tag.Converters...)
	}
	for _, name := range endConverters {
		next := c.g.AddNode()
		c.g.AddEdge(cur, next, "", "__converted__"+name, 0, false)
		cur = next
	}

	if n.Tag != nil {
		if n.Tag.HasSub && n.Tag.Substitution != "" {
			next := c.g.AddNode()
			c.g.AddEdge(cur, next, "", n.Tag.Substitution, 0, false)
			cur = next
		}
		next := c.g.AddNode()
		c.g.AddEdge(cur, next, "", "__end__"+n.Tag.Text, 0, false)
		cur = next
	}

	return cur, nil
}

func hasOwnSub(n *grammar.Node) bool {
	return n.HasSub && n.Substitution != ""
}

func reversedStrings(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func ruleRefName(n *grammar.Node) string {
	if n.GrammarName != "" {
		return n.GrammarName + "." + n.RuleName
	}
	return n.RuleName
}
