package arena

import "github.com/bugduel/server/internal/geom"

// ImpactContext describes one bug-vs-bug contact at the moment of
// detection, with the pre-resolution approach speeds of both bodies.
type ImpactContext struct {
	SortA  BugSort
	SortB  BugSort
	TeamA  Team
	TeamB  Team
	SpeedA float64
	SpeedB float64
}

// ImpactResult is the damage verdict for one contact.
type ImpactResult struct {
	Impact  bool
	DamageA int
	DamageB int
}

// ImpactRule decides damage for a contact. The default rule can be
// replaced by a scripted one.
type ImpactRule func(ImpactContext) ImpactResult

// ImpactEvent records one damaging impact for effect layers.
type ImpactEvent struct {
	A       EntityID
	B       EntityID
	Point   geom.Vec2
	DamageA int
	DamageB int
}

// DefaultImpactRule builds the built-in combat rule: a contact deals
// damage only when the faster body exceeds the speed threshold and the
// bugs are on opposing teams. Both take one point; the faster bug's
// sort adds its bonus damage to the other. On equal speed the first
// body counts as faster.
func DefaultImpactRule(sorts SortTable, threshold float64) ImpactRule {
	return func(c ImpactContext) ImpactResult {
		faster := c.SpeedA
		if c.SpeedB > faster {
			faster = c.SpeedB
		}
		if faster <= threshold || c.TeamA == c.TeamB {
			return ImpactResult{}
		}
		res := ImpactResult{Impact: true, DamageA: 1, DamageB: 1}
		if c.SpeedA >= c.SpeedB {
			res.DamageB += sorts[c.SortA].BonusDamage
		} else {
			res.DamageA += sorts[c.SortB].BonusDamage
		}
		return res
	}
}

// resolveCombat turns the last substep's bug-vs-bug contacts into damage
// through the active impact rule. Contacts involving walls or props are
// kept for observers but never damage anyone.
func (g *Game) resolveCombat() {
	g.contacts = g.world.Contacts()
	g.impacts = g.impacts[:0]

	for _, c := range g.contacts {
		idA, idB := EntityID(c.TagA), EntityID(c.TagB)
		if !idA.IsBug() || !idB.IsBug() {
			continue
		}
		bugA, bugB := g.store.Bug(idA), g.store.Bug(idB)
		if bugA == nil || bugB == nil || !bugA.Alive() || !bugB.Alive() {
			continue
		}

		res := g.impactRule(ImpactContext{
			SortA:  bugA.Sort,
			SortB:  bugB.Sort,
			TeamA:  bugA.Team,
			TeamB:  bugB.Team,
			SpeedA: c.VelA.Length(),
			SpeedB: c.VelB.Length(),
		})
		if !res.Impact {
			continue
		}

		bugA.Damage(res.DamageA)
		bugB.Damage(res.DamageB)
		g.impacts = append(g.impacts, ImpactEvent{
			A:       idA,
			B:       idB,
			Point:   c.Point,
			DamageA: res.DamageA,
			DamageB: res.DamageB,
		})
	}
}
