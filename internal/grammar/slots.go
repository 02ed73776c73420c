package grammar

// CollectSlotNames returns the distinct slot names referenced anywhere in
// intents' sentences or their resolved rule bodies, in first-encountered
// order. Callers use this to know which slots need values supplied (via a
// loader or a literal table) before Replacements.SetSlot can be called for
// every reference a compile would otherwise fail to resolve.
func CollectSlotNames(intents *Intents) []string {
	seen := map[string]bool{}
	var order []string

	visit := func(n *Node) (*Node, VisitResult) {
		if n.Kind == KindSlotRef && !seen[n.SlotName] {
			seen[n.SlotName] = true
			order = append(order, n.SlotName)
		}
		return nil, VisitContinue
	}

	for _, name := range intents.Order {
		for _, s := range intents.Sentences[name] {
			Walk(s, intents.Replacements, visit)
		}
	}

	return order
}
