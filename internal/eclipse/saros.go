package eclipse

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

const (
	// SarosPeriodDays is the mean Saros period.
	SarosPeriodDays = 6585.32

	// SarosToleranceDays is the slack allowed around a whole number of periods.
	SarosToleranceDays = 5.0
)

// sarosNamespace scopes the deterministic group IDs.
var sarosNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://litescript.dev/ls-chartcore/saros"))

// SarosGroup is a set of activations one or more Saros periods apart,
// ordered by date.
type SarosGroup struct {
	ID      string       `json:"id"`
	Members []Activation `json:"members"`
}

// Earliest returns the group's first member.
func (g SarosGroup) Earliest() Activation {
	return g.Members[0]
}

// GroupBySaros groups activations into Saros families. Each activation is
// compared, in input order, with the first member added to every existing
// group and joins the first group it matches; otherwise it starts a new
// group. The result depends on input order and is not a globally optimal
// clustering. Groups are sorted by earliest member and members by date;
// member copies carry their group's ID.
func GroupBySaros(acts []Activation) []SarosGroup {
	var groups []SarosGroup

	for _, a := range acts {
		placed := false
		for i := range groups {
			if SarosRelated(groups[i].Members[0].Event.Date.Sub(a.Event.Date).Hours()/24) {
				groups[i].Members = append(groups[i].Members, a)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, SarosGroup{Members: []Activation{a}})
		}
	}

	for i := range groups {
		members := groups[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Event.Date.Before(members[b].Event.Date)
		})

		first := members[0].Event
		id := uuid.NewSHA1(sarosNamespace, []byte(first.Date.UTC().Format("2006-01-02")+"/"+string(first.Type))).String()
		groups[i].ID = id
		for j := range members {
			members[j].Event = members[j].Event.clone()
			members[j].SarosGroupID = id
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Members[0].Event.Date.Before(groups[b].Members[0].Event.Date)
	})
	return groups
}

// SarosRelated reports whether a separation in days lies within tolerance
// of a whole number (at least one) of Saros periods.
func SarosRelated(deltaDays float64) bool {
	d := math.Abs(deltaDays)
	k := math.Round(d / SarosPeriodDays)
	return k >= 1 && math.Abs(d-k*SarosPeriodDays) <= SarosToleranceDays
}

// Flatten returns the grouped activations in group order.
func Flatten(groups []SarosGroup) []Activation {
	var out []Activation
	for _, g := range groups {
		out = append(out, g.Members...)
	}
	return out
}
