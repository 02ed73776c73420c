package grammar

// VisitResult is returned by a Visitor callback to control traversal.
type VisitResult int

const (
	// VisitContinue descends into the node's children as usual.
	VisitContinue VisitResult = iota
	// VisitSkip stops descent into this node's children, but continues the
	// traversal elsewhere.
	VisitSkip
)

// Visitor is called once per visited node. It may return a non-nil
// replacement node (which replaces the visited node in its parent's Items
// slice, or the top-level result if visiting the root) and a VisitResult
// controlling whether to descend into the (possibly replaced) node's
// children.
type Visitor func(n *Node) (replacement *Node, result VisitResult)

// Walk is a single recursive traversal that may replace nodes, skip
// subtrees, or simply inspect. It descends into replacement
// table entries for rule and slot references (via repl) so that transforms
// reach referenced bodies exactly once per traversal — a rule or slot body
// referenced from several sites is visited only the first time it is
// reached, tracked by a visited-node set for the lifetime of one Walk call.
func Walk(n *Node, repl *Replacements, visit Visitor) *Node {
	w := &walker{repl: repl, visit: visit, visited: map[*Node]bool{}}
	return w.walk(n)
}

type walker struct {
	repl    *Replacements
	visit   Visitor
	visited map[*Node]bool
}

func (w *walker) walk(n *Node) *Node {
	if n == nil {
		return nil
	}

	replacement, result := w.visit(n)
	if replacement != nil {
		n = replacement
	}
	if result == VisitSkip {
		return n
	}

	switch n.Kind {
	case KindGroup, KindAlternative:
		for i, item := range n.Items {
			n.Items[i] = w.walk(item)
		}
	case KindRuleRef:
		if w.repl != nil {
			bodies := w.repl.RuleQualified(n.GrammarName, n.RuleName, "")
			for i, body := range bodies {
				if body == nil || w.visited[body] {
					continue
				}
				w.visited[body] = true
				bodies[i] = w.walk(body)
			}
		}
	case KindSlotRef:
		if w.repl != nil {
			values := w.repl.Slot(n.SlotName)
			for i, v := range values {
				if v == nil || w.visited[v] {
					continue
				}
				w.visited[v] = true
				values[i] = w.walk(v)
			}
		}
	}

	return n
}
