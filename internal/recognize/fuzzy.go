package recognize

import (
	"strings"

	"github.com/dekarrin/voxgraph/internal/graph"
)

// CostInput is handed to a CostFunc for each edge a fuzzy search branch
// considers crossing.
type CostInput struct {
	ILabel    string
	Tokens    []string // remaining input tokens; DefaultCost consumes from the front
	StopWords map[string]struct{}
}

// CostOutput is a CostFunc's verdict: how much the branch's running cost
// increases, the (possibly shortened) remaining token list, and whether the
// branch may continue at all.
type CostOutput struct {
	Cost     float64
	Tokens   []string
	Continue bool
}

// CostFunc computes the cost of crossing one edge during fuzzy search.
type CostFunc func(in CostInput) CostOutput

// DefaultCost is the default edge-cost function for fuzzy search: a matching
// ilabel costs nothing and consumes one token; a non-matching ilabel
// discards tokens from the front until one matches (cost 1 each, 0.1 for
// stop words) or the input runs out, in which case the edge fails.
func DefaultCost(in CostInput) CostOutput {
	if in.ILabel == "" {
		return CostOutput{Tokens: in.Tokens, Continue: true}
	}

	tokens := append([]string(nil), in.Tokens...)
	cost := 0.0
	for len(tokens) > 0 && tokens[0] != in.ILabel {
		bad := tokens[0]
		tokens = tokens[1:]
		if _, ok := in.StopWords[bad]; ok {
			cost += 0.1
		} else {
			cost += 1
		}
	}

	if len(tokens) > 0 && tokens[0] == in.ILabel {
		tokens = tokens[1:]
		return CostOutput{Cost: cost, Tokens: tokens, Continue: true}
	}
	return CostOutput{Cost: cost, Tokens: tokens, Continue: false}
}

// FuzzyResult is one minimum-cost path found for a given intent.
type FuzzyResult struct {
	IntentName string
	NodePath   []int
	Cost       float64
}

type fuzzyQueueEntry struct {
	node      int
	tokens    []string
	path      []int
	outCount  int
	cost      float64
	intent    string
	hasIntent bool
}

// Fuzzy performs uniform-cost search over g, returning, per intent, the set
// of minimum-cost paths (§4.H). Callers collapse across intents by taking
// the overall minimum (see Recognize).
func Fuzzy(g *graph.Graph, tokens []string, stopWords map[string]struct{}, cost CostFunc, opts MatchOptions) map[string][]FuzzyResult {
	if len(tokens) == 0 {
		return nil
	}
	if cost == nil {
		cost = DefaultCost
	}

	results := map[string][]FuzzyResult{}
	bestCost := float64(g.NumNodes())

	queue := []fuzzyQueueEntry{{node: g.Start(), tokens: tokens}}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		node := g.Node(entry.node)
		if node.Final && entry.cost < float64(entry.outCount) {
			finalCost := entry.cost + float64(len(entry.tokens))
			finalPath := append([]int(nil), entry.path...)

			existing := results[entry.intent]
			switch {
			case len(existing) == 0 || finalCost < existing[0].Cost:
				results[entry.intent] = []FuzzyResult{{IntentName: entry.intent, NodePath: finalPath, Cost: finalCost}}
			case finalCost == existing[0].Cost:
				results[entry.intent] = append(existing, FuzzyResult{IntentName: entry.intent, NodePath: finalPath, Cost: finalCost})
			}

			if finalCost < bestCost {
				bestCost = finalCost
			}
		}

		if entry.cost > bestCost {
			continue
		}

		for _, edge := range g.OutEdges(entry.node) {
			nextIntent := entry.intent
			nextOutCount := entry.outCount

			if edge.OLabel != "" {
				if strings.HasPrefix(edge.OLabel, "__label__") {
					nextIntent = edge.OLabel[len("__label__"):]
					if opts.IntentFilter != nil && !opts.IntentFilter(nextIntent) {
						continue
					}
				} else if !strings.HasPrefix(edge.OLabel, "__") {
					nextOutCount++
				}
			}

			out := cost(CostInput{ILabel: edge.ILabel, Tokens: entry.tokens, StopWords: stopWords})
			if !out.Continue {
				continue
			}

			nextPath := append(append([]int(nil), entry.path...), entry.node)
			queue = append(queue, fuzzyQueueEntry{
				node: edge.To, tokens: out.Tokens, path: nextPath,
				outCount: nextOutCount, cost: entry.cost + out.Cost, intent: nextIntent,
			})
		}
	}

	return results
}

// BestFuzzy collapses per-intent fuzzy results down to the overall
// minimum-cost set; ties across intents are all kept.
func BestFuzzy(byIntent map[string][]FuzzyResult) []FuzzyResult {
	var best []FuzzyResult
	var bestCost float64
	haveBest := false

	for _, results := range byIntent {
		if len(results) == 0 {
			continue
		}
		cost := results[0].Cost
		switch {
		case !haveBest || cost < bestCost:
			best = append([]FuzzyResult(nil), results...)
			bestCost = cost
			haveBest = true
		case cost == bestCost:
			best = append(best, results...)
		}
	}
	return best
}
