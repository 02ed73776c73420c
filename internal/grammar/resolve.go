package grammar

import "fmt"

// Replacements is the table a RuleReference or SlotReference resolves
// through. Rule bodies are keyed both under their bare name (shadowed:
// later intents silently overwrite an earlier one's unqualified entry) and
// under their intent-qualified name. It is the sole owner of parsed rule
// bodies and slot values; the graph never retains them, only consults them.
type Replacements struct {
	rules map[string][]*Sentence
	slots map[string][]*Sentence
}

// NewReplacements creates an empty replacement table.
func NewReplacements() *Replacements {
	return &Replacements{rules: map[string][]*Sentence{}, slots: map[string][]*Sentence{}}
}

func ruleKey(grammarName, ruleName string) string {
	if grammarName != "" {
		return fmt.Sprintf("<%s.%s>", grammarName, ruleName)
	}
	return fmt.Sprintf("<%s>", ruleName)
}

func slotKey(slotName string) string {
	return "$" + slotName
}

// SetRule installs a rule body under both its bare and qualified keys (the
// qualified key is only set when intentName is non-empty).
func (r *Replacements) SetRule(intentName, ruleName string, body *Sentence) {
	r.rules[ruleKey("", ruleName)] = []*Sentence{body}
	if intentName != "" {
		r.rules[ruleKey(intentName, ruleName)] = []*Sentence{body}
	}
}

// SetSlot installs the resolved sentence list for a slot, keyed by its bare
// name. Argument lists, if any, are part of slotName verbatim.
func (r *Replacements) SetSlot(slotName string, values []*Sentence) {
	r.slots[slotKey(slotName)] = values
}

// Rule resolves a rule reference. If grammarName is set (an explicit
// "<grammar.name>" reference) it is used directly; otherwise currentIntent
// (the intent the reference appears in) qualifies the lookup, falling back
// to the bare name if no qualified entry exists.
func (r *Replacements) Rule(grammarName, ruleName string) []*Sentence {
	if grammarName != "" {
		return r.rules[ruleKey(grammarName, ruleName)]
	}
	return r.rules[ruleKey("", ruleName)]
}

// RuleQualified resolves a rule reference using currentIntent as the
// grammar-name fallback when the reference itself is unqualified, matching
// the graph compiler's resolution order.
func (r *Replacements) RuleQualified(grammarName, ruleName, currentIntent string) []*Sentence {
	name := grammarName
	if name == "" {
		name = currentIntent
	}
	if name != "" {
		if bodies, ok := r.rules[ruleKey(name, ruleName)]; ok {
			return bodies
		}
	}
	return r.rules[ruleKey("", ruleName)]
}

// Slot resolves a slot reference to its list of resolved sentences.
func (r *Replacements) Slot(slotName string) []*Sentence {
	return r.slots[slotKey(slotName)]
}

// HasRule reports whether any rule entry exists for the given bare name.
func (r *Replacements) HasRule(ruleName string) bool {
	_, ok := r.rules[ruleKey("", ruleName)]
	return ok
}

// HasSlot reports whether any slot entry exists for the given name.
func (r *Replacements) HasSlot(slotName string) bool {
	_, ok := r.slots[slotKey(slotName)]
	return ok
}

// Intents is the parsed, not-yet-resolved grammar: one ordered list of
// sentences per intent name, and the shared replacement table built while
// separating out rules.
type Intents struct {
	Order        []string
	Sentences    map[string][]*Sentence
	Replacements *Replacements
}

// ResolveEntries walks each intent's parsed entries, removing Rule entries
// into the replacement table and grouping the remaining Sentence entries by
// intent. It is pure with respect to its inputs: it only mutates the
// Replacements table it is given (or creates).
func ResolveEntries(order []string, raw map[string][]RawEntry, repl *Replacements) (*Intents, error) {
	if repl == nil {
		repl = NewReplacements()
	}
	sentences := map[string][]*Sentence{}

	for _, intentName := range order {
		entries := raw[intentName]
		sentences[intentName] = nil

		for _, entry := range entries {
			if entry.IsRule {
				body, err := ParseSentence(entry.Text, entry.Line)
				if err != nil {
					return nil, err
				}
				repl.SetRule(intentName, entry.RuleName, body)
				continue
			}

			s, err := ParseSentence(entry.Text, entry.Line)
			if err != nil {
				return nil, err
			}
			sentences[intentName] = append(sentences[intentName], s)
		}
	}

	return &Intents{Order: order, Sentences: sentences, Replacements: repl}, nil
}
