package arena

// resolveTurnBoundary runs once per turn window, at the midpoint. Every
// living bug above the health floor inside the capture zone moves the
// tally one step toward its team, then every bug regenerates.
func (g *Game) resolveTurnBoundary() {
	tally := 0
	g.store.ForEachBug(func(id EntityID, bug *BugData) {
		if bug.Health <= g.tuning.CaptureHealthFloor {
			return
		}
		body := g.world.Body(g.handles[id])
		if body == nil || body.Pos.Length() > g.tuning.CaptureRadius {
			return
		}
		if bug.Team == TeamRed {
			tally++
		} else {
			tally--
		}
	})
	g.captureProgress += tally

	g.store.ForEachBug(func(_ EntityID, bug *BugData) {
		bug.Heal(g.tuning.RegenPerBoundary)
	})
}
