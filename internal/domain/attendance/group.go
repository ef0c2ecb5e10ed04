package attendance

// groupKey folds a nil period into a fixed variant so it never collides with
// a literal empty-string period.
type groupKey struct {
	date      string
	period    string
	hasPeriod bool
}

// Group holds the selected observations for one (date, period).
type Group struct {
	Date     string
	Period   *string
	Selected map[string]Observation // personID -> winning observation
}

// GroupObservations partitions observations by (date, period) and keeps, per
// person within a group, the observation with the greatest non-empty time.
// An observation with an empty time never replaces one that has a time, so
// payload order does not affect the result.
func GroupObservations(observations []Observation) []Group {
	byKey := make(map[groupKey]*Group)
	var order []groupKey

	for _, obs := range observations {
		k := groupKey{date: obs.Date, hasPeriod: obs.Period != nil}
		if obs.Period != nil {
			k.period = *obs.Period
		}

		g, ok := byKey[k]
		if !ok {
			g = &Group{Date: obs.Date, Period: obs.Period, Selected: make(map[string]Observation)}
			byKey[k] = g
			order = append(order, k)
		}

		prev, held := g.Selected[obs.PersonID]
		if !held || (obs.Time != "" && obs.Time > prev.Time) {
			g.Selected[obs.PersonID] = obs
		}
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, *byKey[k])
	}
	return groups
}

// Absentees synthesizes an absent observation for every roster person missing
// from the group's selected map. Derivation is per group: present in one
// period and absent in another is valid.
func (g Group) Absentees(roster Roster) []Observation {
	var out []Observation
	for id, name := range roster {
		if _, ok := g.Selected[id]; ok {
			continue
		}
		out = append(out, Observation{
			PersonID:   id,
			PersonName: name,
			Date:       g.Date,
			Period:     g.Period,
			Status:     StatusAbsent,
		})
	}
	return out
}
