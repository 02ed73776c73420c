package recognize

import (
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
)

// MatchOptions configures both the strict and fuzzy matchers.
type MatchOptions struct {
	// WordTransform, if set, is applied to both ilabels and input tokens
	// before comparison (e.g. for case folding).
	WordTransform func(string) string

	// IntentFilter, if set, is consulted on every intent-selector edge; a
	// false result prunes that branch.
	IntentFilter func(name string) bool

	// MaxPaths caps the number of strict paths enumerated; zero means
	// unbounded.
	MaxPaths int

	// StopWords, if non-empty, triggers a stop-word-excluding retry of the
	// strict matcher when the first pass finds nothing (§4.G), and gives the
	// default fuzzy cost function its marginal-cost token set (§4.H).
	StopWords map[string]struct{}
}

func transform(wt func(string) string, s string) string {
	if wt == nil {
		return s
	}
	return wt(s)
}

// strictQueueEntry is one pending BFS frontier item.
type strictQueueEntry struct {
	node   int
	path   []int
	tokens []string
}

// Strict enumerates paths whose input labels exactly match tokens in order.
// excludeTokens, when non-nil, allows an ilabel to match even
// when it doesn't equal the next token, provided that token is in the set
// (used for the stop-word retry). The returned node paths omit the trailing
// final node, since the edge into it is always a bare epsilon and carries no
// information path replay needs.
func Strict(g *graph.Graph, tokens []string, excludeTokens map[string]struct{}, opts MatchOptions) [][]int {
	if len(tokens) == 0 {
		return nil
	}

	start := g.Start()
	var results [][]int

	queue := []strictQueueEntry{{node: start, tokens: tokens}}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		node := g.Node(entry.node)
		if node.Final && len(entry.tokens) == 0 {
			results = append(results, entry.path)
			if opts.MaxPaths > 0 && len(results) >= opts.MaxPaths {
				break
			}
		}

		for _, edge := range g.OutEdges(entry.node) {
			nextTokens := append([]string(nil), entry.tokens...)

			if strings.HasPrefix(edge.OLabel, "__label__") {
				intentName := edge.OLabel[len("__label__"):]
				if opts.IntentFilter != nil && !opts.IntentFilter(intentName) {
					continue
				}
			}

			if edge.ILabel != "" {
				if len(nextTokens) == 0 {
					continue
				}
				want := transform(opts.WordTransform, edge.ILabel)
				got := transform(opts.WordTransform, nextTokens[0])
				if want != got {
					// A grammar word that is itself a stop word may be
					// traversed for free even though the (already
					// stop-word-stripped) input doesn't contain it.
					if _, ok := excludeTokens[edge.ILabel]; !ok {
						continue
					}
				} else {
					nextTokens = nextTokens[1:]
				}
			}

			nextPath := append(append([]int(nil), entry.path...), entry.node)
			queue = append(queue, strictQueueEntry{node: edge.To, path: nextPath, tokens: nextTokens})
		}
	}

	return results
}
