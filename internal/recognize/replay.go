package recognize

import (
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
	"github.com/dekarrin/voxgraph/internal/vgerr"
)

// ReplayOptions configures path replay.
type ReplayOptions struct {
	// Converters maps a converter name to its implementation. DefaultConverters
	// is used for any name not present here; pass a map built from
	// DefaultConverters() with extra entries to add custom converters.
	Converters map[string]ConverterFunc

	// Cost is the total path cost for a fuzzy match, or 0 for a strict match.
	Cost float64
}

// edgeRecord is one traversed edge's raw word (if the destination node
// consumed one) and output label (if any).
type edgeRecord struct {
	raw    string
	olabel string
}

// walkPath flattens a node path into a (word, olabel) stream, and extracts
// the intent name from the first __label__<name> seen.
func walkPath(g *graph.Graph, path []int) (records []edgeRecord, intentName string) {
	if len(path) == 0 {
		return nil, ""
	}

	last := path[0]
	for _, next := range path[1:] {
		var olabel string
		for _, e := range g.OutEdges(last) {
			if e.To == next {
				olabel = e.OLabel
				break
			}
		}
		word := g.Node(next).Word
		if strings.HasPrefix(olabel, "__label__") && intentName == "" {
			intentName = olabel[len("__label__"):]
		}
		records = append(records, edgeRecord{raw: word, olabel: olabel})
		last = next
	}
	return records, intentName
}

// replayPair is one (raw, substituted) token pair, or a structural entity
// marker carried through to the entity-stack pass. sub only holds a
// meaningful value when hasSub is set, since either half of a pair can be
// absent (a node may consume a word without emitting an output label, or
// emit a label without consuming one).
type replayPair struct {
	raw    string
	sub    Value
	hasSub bool
	marker string // "", "begin", or "end"
	name   string // entity name, set when marker != ""
}

type converterFrame struct {
	name      string
	args      []string
	rawTokens []string
	subTokens []Value
}

// applyConverters streams the (word, olabel) records through a
// converter-frame stack, resolving each
// __convert__/__converted__ pair into a single zipped (raw, sub) run spliced
// into the enclosing frame (or the top-level list).
func applyConverters(records []edgeRecord, converters map[string]ConverterFunc) ([]replayPair, error) {
	var root []replayPair
	var stack []*converterFrame

	emit := func(p replayPair) {
		// Entity markers are independent of converter-frame buffering: they
		// always surface immediately so the entity stack (built from the
		// full root stream) sees them in traversal order.
		if p.marker != "" {
			root = append(root, p)
			return
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if p.raw != "" {
				top.rawTokens = append(top.rawTokens, p.raw)
			}
			if p.hasSub {
				top.subTokens = append(top.subTokens, p.sub)
			}
			return
		}
		root = append(root, p)
	}

	appendResolved := func(pairs []replayPair) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			for _, p := range pairs {
				if p.raw != "" {
					top.rawTokens = append(top.rawTokens, p.raw)
				}
				if p.hasSub {
					top.subTokens = append(top.subTokens, p.sub)
				}
			}
			return
		}
		root = append(root, pairs...)
	}

	for _, rec := range records {
		switch {
		case strings.HasPrefix(rec.olabel, "__label__"):
			// already consumed in walkPath.
			continue

		case strings.HasPrefix(rec.olabel, "__begin__"):
			emit(replayPair{marker: "begin", name: rec.olabel[len("__begin__"):]})

		case strings.HasPrefix(rec.olabel, "__end__"):
			emit(replayPair{marker: "end", name: rec.olabel[len("__end__"):]})

		case strings.HasPrefix(rec.olabel, "__convert__"):
			name, args := splitConverterName(rec.olabel[len("__convert__"):])
			stack = append(stack, &converterFrame{name: name, args: args})

		case strings.HasPrefix(rec.olabel, "__converted__"):
			if len(stack) == 0 {
				return nil, vgerr.PathConsistency("__converted__ marker with no matching __convert__")
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			fn, ok := converters[frame.name]
			if !ok {
				return nil, vgerr.PathConsistencyf("unknown converter %q", frame.name)
			}
			converted, err := fn(frame.subTokens, frame.args)
			if err != nil {
				return nil, err
			}

			pairs := zipTokens(frame.rawTokens, converted)
			appendResolved(pairs)

		default:
			if rec.raw != "" || rec.olabel != "" {
				emit(replayPair{raw: rec.raw, sub: StringValue(rec.olabel), hasSub: rec.olabel != ""})
			}
		}
	}

	if len(stack) != 0 {
		return nil, vgerr.PathConsistency("unbalanced __convert__/__converted__ markers on path")
	}
	return root, nil
}

func splitConverterName(rest string) (name string, args []string) {
	parts := strings.Split(rest, ",")
	return parts[0], parts[1:]
}

// zipTokens pairs raw tokens with a converter's resolved Values position-wise,
// padding the shorter list.
func zipTokens(raw []string, sub []Value) []replayPair {
	n := len(raw)
	if len(sub) > n {
		n = len(sub)
	}
	pairs := make([]replayPair, n)
	for i := 0; i < n; i++ {
		var r string
		if i < len(raw) {
			r = raw[i]
		}
		if i < len(sub) {
			pairs[i] = replayPair{raw: r, sub: sub[i], hasSub: true}
		} else {
			pairs[i] = replayPair{raw: r}
		}
	}
	return pairs
}

// entityBuilder accumulates an in-progress Entity between its __begin__ and
// __end__ markers, tracking each substituted token's Value so the span's
// final Value can be set once the extent is known: a single converted token
// keeps its native type, everything else collapses to a joined string.
type entityBuilder struct {
	Entity
	subVals []Value
}

// Replay reconstructs a Recognition from a winning node path.
func Replay(g *graph.Graph, path []int, opts ReplayOptions) (*Recognition, error) {
	if len(path) == 0 {
		return nil, vgerr.PathConsistency("empty path")
	}

	converters := DefaultConverters()
	for name, fn := range opts.Converters {
		converters[name] = fn
	}

	records, intentName := walkPath(g, path)
	pairs, err := applyConverters(records, converters)
	if err != nil {
		return nil, err
	}

	rec := &Recognition{Intent: IntentResult{Name: intentName, Confidence: 1}}

	var entityStack []*entityBuilder
	rawIndex, subIndex := 0, 0

	for _, p := range pairs {
		switch p.marker {
		case "begin":
			entityStack = append(entityStack, &entityBuilder{
				Entity: Entity{Name: p.name, Start: subIndex, RawStart: rawIndex},
			})
			continue
		case "end":
			if len(entityStack) == 0 {
				return nil, vgerr.PathConsistencyf("__end__%s without a __begin__", p.name)
			}
			last := entityStack[len(entityStack)-1]
			entityStack = entityStack[:len(entityStack)-1]
			if last.Name != p.name {
				return nil, vgerr.PathConsistencyf("mismatched entity name: began %q, ended %q", last.Name, p.name)
			}
			last.End = subIndex - 1
			last.RawEnd = rawIndex - 1
			last.Value = entityValue(last.subVals)
			last.RawValue = strings.Join(last.RawTokens, " ")
			rec.Entities = append(rec.Entities, last.Entity)
			continue
		}

		if p.raw != "" {
			rec.RawTokens = append(rec.RawTokens, p.raw)
			rawIndex += len(p.raw) + 1
			if len(entityStack) > 0 {
				top := entityStack[len(entityStack)-1]
				top.RawTokens = append(top.RawTokens, p.raw)
			}
		}
		if p.hasSub {
			rec.Tokens = append(rec.Tokens, p.sub)
			subIndex += len(p.sub.String()) + 1
			if len(entityStack) > 0 {
				top := entityStack[len(entityStack)-1]
				top.Tokens = append(top.Tokens, p.sub.String())
				top.subVals = append(top.subVals, p.sub)
			}
		}
	}

	tokenStrs := make([]string, len(rec.Tokens))
	for i, v := range rec.Tokens {
		tokenStrs[i] = v.String()
	}
	rec.Text = strings.Join(tokenStrs, " ")
	rec.RawText = strings.Join(rec.RawTokens, " ")

	if opts.Cost > 0 && len(rec.RawTokens) > 0 {
		confidence := 1 - opts.Cost/float64(len(rec.RawTokens))
		if confidence < 0 {
			confidence = 0
		}
		rec.Intent.Confidence = confidence
	}

	return rec, nil
}

// entityValue collapses an entity span's tokens into its final Value: the
// lone token's own Value if there was exactly one, or a joined string
// otherwise.
func entityValue(vals []Value) Value {
	if len(vals) == 1 {
		return vals[0]
	}
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = v.String()
	}
	return StringValue(strings.Join(strs, " "))
}
