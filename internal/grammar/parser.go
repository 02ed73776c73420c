package grammar

import (
	"fmt"
	"strings"

	"github.com/dekarrin/voxgraph/internal/vgerr"
)

// ParseSentence parses a single sentence or rule-body template into a
// Sentence AST. line is the 1-indexed source line number used for
// diagnostics in any returned GrammarParse error.
func ParseSentence(text string, line int) (*Sentence, error) {
	p := &parser{line: line, sourceLine: text}
	root := &Node{Kind: KindGroup, Text: text}
	runes := []rune(text)
	_, ok, err := p.parseExpr(root, runes, nil, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vgerr.NewSyntaxError("unexpected end of input", text, line, len(runes)+1)
	}
	seq := unwrapSequence(root)
	sentence := &Node{
		Kind:         seq.Kind,
		Text:         seq.Text,
		Items:        seq.Items,
		Tag:          seq.Tag,
		Substitution: seq.Substitution,
		HasSub:       seq.HasSub,
	}
	return sentence, nil
}

type parser struct {
	line       int
	sourceLine string
}

func (p *parser) errAt(pos int, format string, a ...any) error {
	return vgerr.NewSyntaxError(fmt.Sprintf(format, a...), p.sourceLine, p.line, pos+1)
}

// splitWords splits a run of whitespace-delimited text into Word or
// SlotReference nodes: a token starting with "$" is a slot reference
// (optionally carrying a ":substitution"); any other
// token may split on the first ":" into text:substitution, and the
// remainder (after substitution extraction, or after the bare text if there
// was none) may carry one or more "!converter" suffixes.
func splitWords(literal string) []*Node {
	fields := strings.Fields(literal)
	nodes := make([]*Node, 0, len(fields))
	for _, tok := range fields {
		if strings.HasPrefix(tok, "$") {
			rest := tok[1:]
			if idx := strings.Index(rest, ":"); idx >= 0 {
				nodes = append(nodes, &Node{
					Kind:         KindSlotRef,
					Text:         tok,
					SlotName:     rest[:idx],
					Substitution: rest[idx+1:],
					HasSub:       true,
				})
			} else {
				nodes = append(nodes, &Node{Kind: KindSlotRef, Text: tok, SlotName: rest})
			}
			continue
		}

		word := &Node{Kind: KindWord, Text: tok}
		body := tok
		if bangIdx := strings.Index(body, "!"); bangIdx >= 0 {
			parts := strings.Split(body, "!")
			body = parts[0]
			word.Converters = parts[1:]
		}
		if colonIdx := strings.Index(body, ":"); colonIdx >= 0 {
			word.Text = body[:colonIdx]
			word.Substitution = body[colonIdx+1:]
			word.HasSub = true
		} else {
			word.Text = body
		}
		nodes = append(nodes, word)
	}
	return nodes
}

// parseExpr is a direct port of the source's character-scanner parse_expression.
// It walks text, appending parsed items into the currently active group
// (starting with root), and returns the rune index one past any end
// delimiter it was told to look for (ok=false if a non-empty end set was
// given but never found before the text ran out).
func (p *parser) parseExpr(root *Node, text []rune, end []rune, isLiteral bool) (next int, ok bool, err error) {
	found := false
	nextIndex := 0
	var literal []rune
	var lastTaggable *Node
	lastGroup := root
	curRoot := root

	flushLiteral := func() {
		trimmed := strings.TrimSpace(string(literal))
		literal = literal[:0]
		if trimmed == "" {
			return
		}
		words := splitWords(trimmed)
		lastGroup.Items = append(lastGroup.Items, words...)
		lastTaggable = words[len(words)-1]
	}

	i := 0
	for i < len(text) {
		if i < nextIndex {
			i++
			continue
		}
		c := text[i]
		var lastC rune
		if i > 0 {
			lastC = text[i-1]
		}
		nextIndex = i + 1

		if containsRune(end, c) {
			nextIndex = i + 2
			found = true
			break
		}

		switch {
		case c == ':' && (lastC == ')' || lastC == ']'):
			if lastTaggable == nil {
				return 0, false, p.errAt(i, "substitution with nothing to attach to")
			}
			subEnd := append([]rune{' '}, end...)
			relEnd, subFound, serr := p.scanLiteralUntil(text[i+1:], subEnd)
			if serr != nil {
				return 0, false, serr
			}
			if !subFound {
				relEnd = len(text) + 1
			} else {
				relEnd += i - 1
			}
			clampEnd := relEnd
			if clampEnd > len(text) {
				clampEnd = len(text)
			}
			subText := strings.TrimSpace(string(text[i+1 : clampEnd]))
			if bangIdx := strings.Index(subText, "!"); bangIdx >= 0 {
				parts := strings.Split(subText, "!")
				subText = parts[0]
				lastTaggable.Converters = parts[1:]
			}
			lastTaggable.Substitution = subText
			lastTaggable.HasSub = true
			nextIndex = relEnd

		case c == '<' || c == '(' || c == '[' || c == '{' || c == '|':
			flushLiteral()

			switch c {
			case '<':
				relEnd, efound, serr := p.scanLiteralUntil(text[i+1:], []rune{'>'})
				if serr != nil {
					return 0, false, serr
				}
				if !efound {
					return 0, false, p.errAt(i, "unclosed rule reference")
				}
				nextIndex = relEnd + i
				nameRunes := text[i+1 : nextIndex-1]
				name := string(nameRunes)
				rule := &Node{Kind: KindRuleRef, Text: string(text[i:nextIndex])}
				if dot := strings.LastIndex(name, "."); dot >= 0 {
					rule.GrammarName = name[:dot]
					rule.RuleName = name[dot+1:]
				} else {
					rule.RuleName = name
				}
				lastGroup.Items = append(lastGroup.Items, rule)
				lastTaggable = rule

			case '(':
				group := &Node{Kind: KindGroup}
				relEnd, gfound, serr := p.parseExpr(group, text[i+1:], []rune{')'}, true)
				if serr != nil {
					return 0, false, serr
				}
				if !gfound {
					return 0, false, p.errAt(i, "unclosed group")
				}
				nextIndex = relEnd + i
				group = unwrapSequence(group)
				group.Text = string(text[i+1 : nextIndex-1])
				lastGroup.Items = append(lastGroup.Items, group)
				lastTaggable = group

			case '[':
				inner := &Node{Kind: KindGroup}
				relEnd, ofound, serr := p.parseExpr(inner, text[i+1:], []rune{']'}, true)
				if serr != nil {
					return 0, false, serr
				}
				if !ofound {
					return 0, false, p.errAt(i, "unclosed optional")
				}
				nextIndex = relEnd + i
				inner = unwrapSequence(inner)
				optional := &Node{Kind: KindAlternative}
				if len(inner.Items) > 0 {
					if len(inner.Items) == 1 && inner.Tag == nil && !inner.HasSub {
						optional.Items = append(optional.Items, inner.Items[0])
					} else if inner.Kind == KindAlternative {
						optional.Items = append(optional.Items, inner.Items...)
					} else {
						inner.Text = string(text[i+1 : nextIndex-1])
						optional.Items = append(optional.Items, inner)
					}
				}
				optional.Items = append(optional.Items, NewWord(""))
				optional.Text = string(text[i+1 : nextIndex-1])
				lastGroup.Items = append(lastGroup.Items, optional)
				lastTaggable = optional

			case '{':
				if lastTaggable == nil {
					return 0, false, p.errAt(i, "tag with nothing to attach to")
				}
				relEnd, tfound, serr := p.scanLiteralUntil(text[i+1:], []rune{'}'})
				if serr != nil {
					return 0, false, serr
				}
				if !tfound {
					return 0, false, p.errAt(i, "unclosed tag")
				}
				nextIndex = relEnd + i
				tagText := string(text[i+1 : nextIndex-1])
				tag := &Tag{Text: tagText}
				if strings.ContainsAny(tagText, ":!") {
					if bangIdx := strings.Index(tagText, "!"); bangIdx >= 0 {
						parts := strings.Split(tagText, "!")
						tagText = parts[0]
						tag.Converters = parts[1:]
					}
					if colonIdx := strings.Index(tagText, ":"); colonIdx >= 0 {
						tag.Text = tagText[:colonIdx]
						tag.Substitution = tagText[colonIdx+1:]
						tag.HasSub = true
					} else {
						tag.Text = tagText
					}
				}
				lastTaggable.Tag = tag

			case '|':
				if curRoot == nil {
					return 0, false, p.errAt(i, "alternative with no enclosing expression")
				}
				if curRoot.Kind != KindAlternative {
					alt := &Node{Kind: KindAlternative}
					if len(curRoot.Items) == 1 {
						alt.Items = append(alt.Items, curRoot.Items[0])
					} else {
						g := &Node{Kind: KindGroup, Items: curRoot.Items}
						alt.Items = append(alt.Items, g)
						lastGroup = g
					}
					curRoot.Items = []*Node{alt}
					curRoot = alt
				}
				if lastGroup.Text == "" {
					lastGroup.Text = joinNodeText(lastGroup.Items)
				}
				lastGroup = &Node{Kind: KindGroup}
				curRoot.Items = append(curRoot.Items, lastGroup)
			}

		default:
			literal = append(literal, c)
		}
	}

	if isLiteral {
		flushLiteral()
	}

	if lastGroup != nil {
		if len(lastGroup.Items) == 1 && curRoot != nil && len(curRoot.Items) > 0 {
			curRoot.Items[len(curRoot.Items)-1] = lastGroup.Items[0]
		} else if lastGroup.Text == "" {
			lastGroup.Text = joinNodeText(lastGroup.Items)
		}
	}

	if len(end) > 0 && !found {
		return 0, false, nil
	}
	return nextIndex, true, nil
}

// scanLiteralUntil is the degenerate form of parseExpr used for contexts the
// grammar never nests structural constructs inside: rule names, tag bodies,
// and substitution text. It just looks for the first occurrence of any rune
// in delims and returns the index one past it (relative to text), mirroring
// parseExpr's index convention for recursive calls with root=nil.
func (p *parser) scanLiteralUntil(text []rune, delims []rune) (next int, ok bool, err error) {
	for i, c := range text {
		if containsRune(delims, c) {
			return i + 2, true, nil
		}
	}
	return 0, false, nil
}

func containsRune(set []rune, c rune) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}

func joinNodeText(items []*Node) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Text
	}
	return strings.Join(parts, " ")
}
