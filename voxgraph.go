// Package voxgraph compiles a JSGF-like, INI-embedded grammar of spoken
// command intents into a directed weighted transducer graph, and recognizes
// tokenized utterances against it strictly or fuzzily.
package voxgraph

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/voxgraph/internal/fstio"
	"github.com/dekarrin/voxgraph/internal/grammar"
	"github.com/dekarrin/voxgraph/internal/graph"
	"github.com/dekarrin/voxgraph/internal/graphio"
	"github.com/dekarrin/voxgraph/internal/ngram"
	"github.com/dekarrin/voxgraph/internal/recognize"
	"github.com/dekarrin/voxgraph/internal/vglog"
)

// Logger is the one-method sink every package in this module accepts
// instead of reaching for a global logger.
type Logger = vglog.Logger

// SlotLoader resolves a slot's values by name, e.g. by shelling out to an
// external program. voxgraph never calls a subprocess itself; it only
// invokes whatever loader the caller supplies.
type SlotLoader func(name string) ([]string, error)

// Options configures grammar loading and compilation.
type Options struct {
	// IntentFilter, SentenceTransform mirror grammar.SplitOptions.
	IntentFilter      func(intentName string) bool
	SentenceTransform func(text string) string

	// Weighted and ExcludeSlotsFromCounts mirror graph.Options.
	Weighted               bool
	ExcludeSlotsFromCounts bool
	MaxExpansionDepth      int

	// Slots supplies literal slot values directly, keyed by slot name.
	// SlotLoader is consulted for any referenced slot Slots doesn't cover.
	Slots      map[string][]string
	SlotLoader SlotLoader

	Logger Logger
}

// Engine is the compiled, ready-to-query form of one grammar: the resolved
// intents that produced it and the graph they compiled to. It is the root
// facade cmd/voxc and server/ build on, so neither has to reach into
// internal/ packages directly.
type Engine struct {
	intents *grammar.Intents
	graph   *graph.Graph
	logger  Logger
}

// Load parses, resolves, and compiles the grammar text read from r into a
// ready-to-query Engine.
func Load(r io.Reader, opts Options) (*Engine, error) {
	intents, err := parseGrammar(r, opts)
	if err != nil {
		return nil, err
	}

	g, err := compileGraph(intents, opts)
	if err != nil {
		return nil, err
	}

	return &Engine{intents: intents, graph: g, logger: opts.Logger}, nil
}

// LoadCached behaves like Load, reading grammar text from grammarPath, but
// skips the compile step when cachePath holds a binary graph cache at least
// as new as grammarPath: it decodes that cache with graphio.DecodeBinary
// instead of calling graph.Compile. Parsing and resolving the grammar text
// still happens on every call, since Intents and Reload need that metadata
// regardless of whether the graph itself came from cache.
//
// Whenever the cache is stale, unreadable, or absent, LoadCached compiles
// normally and then writes a fresh cache to cachePath (best-effort: a
// failure to write is logged, not returned, since the Engine is still
// usable without a cache). Passing an empty cachePath disables caching
// entirely and behaves like Load.
func LoadCached(grammarPath, cachePath string, opts Options) (*Engine, error) {
	f, err := os.Open(grammarPath)
	if err != nil {
		return nil, fmt.Errorf("open grammar file: %w", err)
	}
	defer f.Close()

	intents, err := parseGrammar(f, opts)
	if err != nil {
		return nil, err
	}

	if g, ok := loadFreshCache(cachePath, grammarPath, opts); ok {
		return &Engine{intents: intents, graph: g, logger: opts.Logger}, nil
	}

	g, err := compileGraph(intents, opts)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := saveCache(cachePath, g, opts); err != nil {
			vglog.Log(opts.Logger, "could not write graph cache %s: %s", cachePath, err)
		}
	}

	return &Engine{intents: intents, graph: g, logger: opts.Logger}, nil
}

func parseGrammar(r io.Reader, opts Options) (*grammar.Intents, error) {
	raw, order, err := grammar.SplitINI(r, grammar.SplitOptions{
		IntentFilter:      opts.IntentFilter,
		SentenceTransform: opts.SentenceTransform,
	})
	if err != nil {
		return nil, fmt.Errorf("split grammar: %w", err)
	}

	repl := grammar.NewReplacements()
	intents, err := grammar.ResolveEntries(order, raw, repl)
	if err != nil {
		return nil, fmt.Errorf("resolve grammar: %w", err)
	}

	if err := loadSlots(intents, opts); err != nil {
		return nil, err
	}

	return intents, nil
}

func compileGraph(intents *grammar.Intents, opts Options) (*graph.Graph, error) {
	vglog.Log(opts.Logger, "compiling %d intents", len(intents.Order))
	g, err := graph.Compile(intents, graph.Options{
		Weighted:               opts.Weighted,
		ExcludeSlotsFromCounts: opts.ExcludeSlotsFromCounts,
		MaxExpansionDepth:      opts.MaxExpansionDepth,
		Logger:                 opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("compile grammar: %w", err)
	}
	return g, nil
}

// loadFreshCache decodes the graph cache at cachePath if it exists and its
// mtime is at least as new as grammarPath's. Any failure (missing file,
// stale mtime, bad decode) is treated as a cache miss, not an error.
func loadFreshCache(cachePath, grammarPath string, opts Options) (*graph.Graph, bool) {
	if cachePath == "" {
		return nil, false
	}

	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return nil, false
	}
	grammarInfo, err := os.Stat(grammarPath)
	if err != nil {
		return nil, false
	}
	if cacheInfo.ModTime().Before(grammarInfo.ModTime()) {
		return nil, false
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	g, err := graphio.DecodeBinary(data)
	if err != nil {
		vglog.Log(opts.Logger, "graph cache %s failed to decode, recompiling: %s", cachePath, err)
		return nil, false
	}

	vglog.Log(opts.Logger, "loaded cached graph from %s", cachePath)
	return g, true
}

func saveCache(path string, g *graph.Graph, opts Options) error {
	data, err := graphio.EncodeBinary(g)
	if err != nil {
		return fmt.Errorf("encode graph cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write graph cache: %w", err)
	}
	vglog.Log(opts.Logger, "wrote graph cache to %s (%d bytes)", path, len(data))
	return nil
}

func loadSlots(intents *grammar.Intents, opts Options) error {
	for _, name := range grammar.CollectSlotNames(intents) {
		if intents.Replacements.HasSlot(name) {
			continue
		}

		var values []string
		if v, ok := opts.Slots[name]; ok {
			values = v
		} else if opts.SlotLoader != nil {
			loaded, err := opts.SlotLoader(name)
			if err != nil {
				return fmt.Errorf("load slot %q: %w", name, err)
			}
			values = loaded
		} else {
			return fmt.Errorf("slot %q is referenced but no value source was configured", name)
		}

		sentences := make([]*grammar.Sentence, 0, len(values))
		for i, v := range values {
			s, err := grammar.ParseSentence(v, 0)
			if err != nil {
				return fmt.Errorf("slot %q value %d: %w", name, i, err)
			}
			sentences = append(sentences, s)
		}
		intents.Replacements.SetSlot(name, sentences)
	}
	return nil
}

// Reload recompiles the Engine in place from new grammar text, the way an
// admin "reload grammar" operation would use it. On error, the Engine
// retains its previous graph.
func (e *Engine) Reload(r io.Reader, opts Options) error {
	next, err := Load(r, opts)
	if err != nil {
		return err
	}
	e.intents = next.intents
	e.graph = next.graph
	e.logger = next.logger
	return nil
}

// Graph returns the compiled transducer graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// SaveCache writes the compiled graph to path as a rezi binary blob, for a
// later LoadCached call to pick up instead of recompiling.
func (e *Engine) SaveCache(path string) error {
	return saveCache(path, e.graph, Options{Logger: e.logger})
}

// Intents returns the intent names this Engine was compiled from, in
// declaration order.
func (e *Engine) Intents() []string {
	out := make([]string, len(e.intents.Order))
	copy(out, e.intents.Order)
	return out
}

// Recognize tokenizes text with Tokenize and matches it against the
// compiled graph. An empty result is not an error.
func (e *Engine) Recognize(text string, opts recognize.Options) ([]recognize.Recognition, error) {
	tokens := recognize.Tokenize(text)
	return recognize.Recognize(e.graph, tokens, opts)
}

// RecognizeTokens is Recognize for callers that have already tokenized
// their input (e.g. an ASR system's word lattice).
func (e *Engine) RecognizeTokens(tokens []string, opts recognize.Options) ([]recognize.Recognition, error) {
	return recognize.Recognize(e.graph, tokens, opts)
}

// NGrams counts n-grams per intent over the compiled graph's word-only
// projection.
func (e *Engine) NGrams(opts ngram.Options) (map[string]*ngram.Counts, error) {
	return ngram.CountByIntent(e.graph, opts)
}

// ToJSON renders the compiled graph as node-link JSON.
func (e *Engine) ToJSON() ([]byte, error) {
	return graphio.ToJSON(e.graph)
}

// ExportFST renders the compiled graph as OpenFST text transducers, one per
// intent.
func (e *Engine) ExportFST(opts fstio.Options) (map[string]fstio.Result, error) {
	return fstio.ByIntent(e.graph, opts)
}

// Describe summarizes the compiled graph: intent count, node count, edge
// count, one line per intent.
func (e *Engine) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d intents, %d nodes, %d edges\n", len(e.intents.Order), e.graph.NumNodes(), e.graph.NumEdges())
	for _, name := range e.intents.Order {
		fmt.Fprintf(&b, "  %s: %d sentences\n", name, len(e.intents.Sentences[name]))
	}
	return b.String()
}
