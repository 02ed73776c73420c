package grammar

// Counter computes the number of distinct sentences an AST node expands to,
// used by the graph compiler to balance per-intent branch weights. A Counter
// is bound to one Replacements table and memoizes node counts across calls,
// since the same rule/slot body may be visited many times (once per
// reference site).
type Counter struct {
	Replacements *Replacements
	ExcludeSlots bool

	intent string
	memo   map[*Node]int
}

// NewCounter creates a Counter over the given replacement table. When
// excludeSlots is true (the default used for weight balancing), slot
// references contribute 0 to their containing node's count rather than the
// sum over the slot's resolved values.
func NewCounter(r *Replacements, excludeSlots bool) *Counter {
	return &Counter{Replacements: r, ExcludeSlots: excludeSlots, memo: map[*Node]int{}}
}

// Count returns the number of distinct sentences expression expands to,
// resolving any unqualified rule references against intentName. intentName
// is carried unchanged through recursion into referenced rule bodies, since
// unqualified references always resolve within the referencing intent,
// never the rule definition's own intent.
func (c *Counter) Count(n *Node, intentName string) int {
	c.intent = intentName
	return c.countMemo(n)
}

func (c *Counter) countMemo(n *Node) int {
	if n == nil {
		return 0
	}
	if v, ok := c.memo[n]; ok {
		return v
	}
	v := c.count(n)
	c.memo[n] = v
	return v
}

func (c *Counter) count(n *Node) int {
	switch n.Kind {
	case KindWord:
		return 1
	case KindGroup:
		count := 1
		for _, item := range n.Items {
			count *= c.countMemo(item)
		}
		return count
	case KindAlternative:
		sum := 0
		for _, item := range n.Items {
			sum += c.countMemo(item)
		}
		return sum
	case KindRuleRef:
		bodies := c.Replacements.RuleQualified(n.GrammarName, n.RuleName, c.intent)
		sum := 0
		for _, body := range bodies {
			sum += c.countMemo(body)
		}
		return sum
	case KindSlotRef:
		if c.ExcludeSlots {
			return 0
		}
		values := c.Replacements.Slot(n.SlotName)
		sum := 0
		for _, v := range values {
			sum += c.countMemo(v)
		}
		return sum
	default:
		return 0
	}
}

// IntentCount returns max(1, sum of counts) across all sentences belonging
// to one intent.
func (c *Counter) IntentCount(sentences []*Sentence, intentName string) int {
	sum := 0
	for _, s := range sentences {
		sum += c.Count(s, intentName)
	}
	if sum < 1 {
		return 1
	}
	return sum
}
