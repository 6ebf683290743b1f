package intent

// FiltersChanged reports whether the retrieval filters diverged between the
// previous and the newly merged frame. A slot counts as changed only when
// both sides are known and differ: learning a previously unknown filter must
// not throw away an otherwise valid retrieval.
func FiltersChanged(newFrame, oldFrame Frame) bool {
	pairs := [][2]Slot{
		{newFrame.ProductType, oldFrame.ProductType},
		{newFrame.BankingType, oldFrame.BankingType},
		{newFrame.Tier, oldFrame.Tier},
	}
	for _, p := range pairs {
		if p[0].IsKnown() && p[1].IsKnown() && p[0].Value() != p[1].Value() {
			return true
		}
	}
	return false
}
