package recognize

import (
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
)

// Options configures a full recognition call, combining the strict/fuzzy
// matcher options with replay options.
type Options struct {
	MatchOptions
	ReplayOptions

	// Fuzzy selects fuzzy (uniform-cost) matching over strict (exact BFS)
	// matching.
	Fuzzy bool

	// CostFunc overrides the fuzzy matcher's default cost function.
	CostFunc CostFunc
}

// Recognize matches tokens against g and replays every resulting path into a
// Recognition, picking strict or fuzzy matching per opts.Fuzzy. An empty
// result means no match; that is never an error.
func Recognize(g *graph.Graph, tokens []string, opts Options) ([]Recognition, error) {
	if opts.Fuzzy {
		byIntent := Fuzzy(g, tokens, opts.StopWords, opts.CostFunc, opts.MatchOptions)
		best := BestFuzzy(byIntent)
		if len(best) == 0 {
			return nil, nil
		}

		var out []Recognition
		for _, result := range best {
			ro := opts.ReplayOptions
			ro.Cost = result.Cost
			rec, err := Replay(g, result.NodePath, ro)
			if err != nil {
				continue
			}
			out = append(out, *rec)
		}
		return out, nil
	}

	paths := Strict(g, tokens, nil, opts.MatchOptions)
	if len(paths) == 0 && len(opts.StopWords) > 0 {
		filtered := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if _, ok := opts.StopWords[t]; !ok {
				filtered = append(filtered, t)
			}
		}
		paths = Strict(g, filtered, opts.StopWords, opts.MatchOptions)
	}

	var out []Recognition
	for _, path := range paths {
		rec, err := Replay(g, path, opts.ReplayOptions)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Tokenize splits whitespace-separated text into tokens, the same policy the
// matchers expect for raw input.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
