// Package graphio serializes a compiled graph to and from the node-link JSON
// shape networkx's json_graph.node_link_data/node_link_graph produce, and to
// a compact binary cache via rezi.
package graphio

import (
	"encoding/json"
	"fmt"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/voxgraph/internal/graph"
)

// linkDoc mirrors the top-level shape of nx.readwrite.json_graph.node_link_data's
// output: a directed, non-multigraph document with "nodes" and "links" arrays.
type linkDoc struct {
	Directed   bool          `json:"directed"`
	Multigraph bool          `json:"multigraph"`
	Graph      struct{}      `json:"graph"`
	Nodes      []linkNode    `json:"nodes"`
	Links      []linkEdge    `json:"links"`
}

type linkNode struct {
	ID    int    `json:"id"`
	Start bool   `json:"start,omitempty"`
	Final bool   `json:"final,omitempty"`
	Word  string `json:"word,omitempty"`
}

type linkEdge struct {
	Source           int     `json:"source"`
	Target           int     `json:"target"`
	ILabel           string  `json:"ilabel,omitempty"`
	OLabel           string  `json:"olabel,omitempty"`
	Weight           float64 `json:"weight,omitempty"`
	SentenceCount    int     `json:"sentence_count,omitempty"`
}

// ToJSON renders g as node-link JSON.
func ToJSON(g *graph.Graph) ([]byte, error) {
	doc := linkDoc{Directed: true, Multigraph: true}

	for id, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, linkNode{ID: id, Start: n.Start, Final: n.Final, Word: n.Word})
	}
	for _, e := range g.Edges() {
		le := linkEdge{Source: e.From, Target: e.To, ILabel: e.ILabel, OLabel: e.OLabel}
		if e.HasWeight {
			le.Weight = e.Weight
		}
		if e.HasSentenceCount {
			le.SentenceCount = e.SentenceCount
		}
		doc.Links = append(doc.Links, le)
	}

	return json.MarshalIndent(&doc, "", "  ")
}

// FromJSON parses node-link JSON back into a graph. Node ids must already be
// the dense 0..n-1 range a Compile call would have produced; this function
// does not renumber them.
func FromJSON(data []byte) (*graph.Graph, error) {
	var doc linkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse graph json: %w", err)
	}

	g := graph.New()
	idToIdx := make(map[int]int, len(doc.Nodes))
	for _, n := range doc.Nodes {
		idx := g.AddNode()
		idToIdx[n.ID] = idx
		if n.Word != "" {
			g.SetWord(idx, n.Word)
		}
		if n.Start {
			g.SetStart(idx)
		}
		if n.Final {
			g.SetFinal(idx)
		}
	}

	for _, l := range doc.Links {
		from, ok := idToIdx[l.Source]
		if !ok {
			return nil, fmt.Errorf("link references unknown node id %d", l.Source)
		}
		to, ok := idToIdx[l.Target]
		if !ok {
			return nil, fmt.Errorf("link references unknown node id %d", l.Target)
		}
		hasWeight := l.Weight != 0
		idx := g.AddEdge(from, to, l.ILabel, l.OLabel, l.Weight, hasWeight)
		if l.SentenceCount != 0 {
			g.SetEdgeSentenceCount(idx, l.SentenceCount)
		}
	}

	return g, nil
}

// cacheNode and cacheEdge are the flat, tag-free shapes rezi's reflective
// struct encoder walks; Graph's own fields are unexported so the cache is
// built from the same accessor methods ToJSON uses rather than reflecting
// over Graph directly.
type cacheNode struct {
	Start bool
	Final bool
	Word  string
}

type cacheEdge struct {
	From, To         int
	ILabel, OLabel   string
	Weight           float64
	HasWeight        bool
	SentenceCount    int
	HasSentenceCount bool
}

type cacheDoc struct {
	StartID int
	FinalID int
	Nodes   []cacheNode
	Edges   []cacheEdge
}

// EncodeBinary renders g as a rezi binary blob, suitable for a cache file
// that's cheaper to load than re-parsing and re-compiling a grammar.
func EncodeBinary(g *graph.Graph) ([]byte, error) {
	doc := cacheDoc{StartID: g.Start(), FinalID: g.Final()}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, cacheNode{Start: n.Start, Final: n.Final, Word: n.Word})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, cacheEdge{
			From: e.From, To: e.To,
			ILabel: e.ILabel, OLabel: e.OLabel,
			Weight: e.Weight, HasWeight: e.HasWeight,
			SentenceCount: e.SentenceCount, HasSentenceCount: e.HasSentenceCount,
		})
	}
	return rezi.Enc(doc)
}

// DecodeBinary reverses EncodeBinary.
func DecodeBinary(data []byte) (*graph.Graph, error) {
	var doc cacheDoc
	n, err := rezi.Dec(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("rezi decode: consumed %d/%d bytes", n, len(data))
	}

	g := graph.New()
	for _, cn := range doc.Nodes {
		idx := g.AddNode()
		if cn.Word != "" {
			g.SetWord(idx, cn.Word)
		}
	}
	if doc.StartID >= 0 {
		g.SetStart(doc.StartID)
	}
	if doc.FinalID >= 0 {
		g.SetFinal(doc.FinalID)
	}
	for _, ce := range doc.Edges {
		idx := g.AddEdge(ce.From, ce.To, ce.ILabel, ce.OLabel, ce.Weight, ce.HasWeight)
		if ce.HasSentenceCount {
			g.SetEdgeSentenceCount(idx, ce.SentenceCount)
		}
	}

	return g, nil
}
