// Package grammar parses the JSGF-like, INI-embedded command grammar
// described by the spoken-command intent compiler: an INI splitter (ini.go),
// a recursive-descent sentence parser (parser.go), a rule/slot resolver
// (resolve.go), an expansion counter for weight balancing (counter.go), and
// a recursive AST visitor (visitor.go).
//
// The AST is a tagged-variant type: one Node struct carries a Kind
// discriminator and the union of fields any variant might need, rather than
// an interface hierarchy. Shared attributes (Text, Tag, Substitution,
// Converters) are plain fields on Node.
package grammar

// Kind discriminates the variant a Node represents.
type Kind int

const (
	// KindWord is a literal input token.
	KindWord Kind = iota
	// KindGroup is an ordered concatenation of children.
	KindGroup
	// KindAlternative is an unordered choice among children.
	KindAlternative
	// KindRuleRef is a reference to a named rule, <name> or <grammar.name>.
	KindRuleRef
	// KindSlotRef is a reference to a named slot, $name or $name,arg,arg.
	KindSlotRef
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindGroup:
		return "group"
	case KindAlternative:
		return "alternative"
	case KindRuleRef:
		return "rule-reference"
	case KindSlotRef:
		return "slot-reference"
	default:
		return "unknown"
	}
}

// Tag is attached to any taggable node. It carries the tag's own
// substitution/converter contract, which is distinct from (and, per
// invariant 5, emitted after) the node's own substitution.
type Tag struct {
	Text         string
	Substitution string // empty means "no tag substitution"
	HasSub       bool
	Converters   []string
}

// Node is a single AST node. Which fields are meaningful depends on Kind:
//
//   - KindWord: Text is the literal token. Substitution/Converters may be
//     set.
//   - KindGroup, KindAlternative: Items holds the ordered children.
//   - KindRuleRef: RuleName and optionally GrammarName.
//   - KindSlotRef: SlotName, which may itself contain comma-joined
//     arguments verbatim (e.g. "n,0,100,1").
//
// Tag, Substitution, and Converters are shared across all variants: any
// node may carry a capture tag, a display substitution, or a converter
// chain, regardless of its Kind.
type Node struct {
	Kind Kind
	Text string

	Tag *Tag

	Substitution string
	HasSub       bool
	Converters   []string

	Items []*Node

	RuleName    string
	GrammarName string

	SlotName string
}

// Sentence is a parsed sentence template. By invariant, a Sentence is
// always a Node of Kind Group (after the Sentence-unwrap rule has been
// applied by the parser).
type Sentence = Node

// NewWord creates a bare word node with no substitution, converters, or tag.
func NewWord(text string) *Node {
	return &Node{Kind: KindWord, Text: text}
}

// NewGroup creates a group sequence of the given items.
func NewGroup(items ...*Node) *Node {
	return &Node{Kind: KindGroup, Items: items}
}

// NewAlternative creates an alternative sequence of the given items.
func NewAlternative(items ...*Node) *Node {
	return &Node{Kind: KindAlternative, Items: items}
}

// unwrapSequence recursively unpacks a Group/Alternative node whose single
// item is itself a Group/Alternative, adopting that child's Kind, Items,
// Tag, and Substitution. This implements invariant 2 (Sentence-unwrap) and
// is also used for parenthesized groups and optionals.
func unwrapSequence(n *Node) *Node {
	for len(n.Items) == 1 && (n.Items[0].Kind == KindGroup || n.Items[0].Kind == KindAlternative) {
		child := n.Items[0]
		n.Kind = child.Kind
		if child.Text != "" {
			n.Text = child.Text
		}
		n.Items = child.Items
		if child.Tag != nil {
			n.Tag = child.Tag
		}
		if child.HasSub {
			n.Substitution = child.Substitution
			n.HasSub = true
		}
	}
	return n
}
