package solver

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dyluth/segmaker/pkg/observation"
)

// TagPolarity is one side of a polarity conflict.
type TagPolarity struct {
	Tag      string
	Polarity observation.Polarity
}

// Conflict records two tags of one tile type that claim opposite polarity on
// the same bit although both can be active on one tile at once.
type Conflict struct {
	TileType string
	Pos      observation.BitPos
	A, B     TagPolarity // A.Tag < B.Tag
}

type claim struct {
	tag      string
	polarity observation.Polarity
}

// destination returns the wire a "<dst>.<src>" tag drives.
func destination(tag string) string {
	dst, _, _ := strings.Cut(tag, ".")
	return dst
}

// exclusive reports whether two tags can never be active together on one
// tile. Tags driving the same destination are sources of one mux, and only
// one of them is selected at a time. Parameter tags named "<param>.<value>"
// follow the same rule since a site holds one value per design.
func exclusive(a, b string) bool {
	return destination(a) == destination(b)
}

func findConflicts(solved []Solution) []Conflict {
	byType := make(map[string]map[observation.BitPos][]claim)
	for _, s := range solved {
		claims, ok := byType[s.Key.TileType]
		if !ok {
			claims = make(map[observation.BitPos][]claim)
			byType[s.Key.TileType] = claims
		}
		for _, b := range s.Bits {
			claims[b.Pos] = append(claims[b.Pos], claim{tag: s.Key.Tag, polarity: b.Polarity})
		}
	}

	var conflicts []Conflict
	for tileType, claims := range byType {
		for pos, cs := range claims {
			for i := range cs {
				for j := i + 1; j < len(cs); j++ {
					a, b := cs[i], cs[j]
					if !a.polarity.Opposite(b.polarity) || exclusive(a.tag, b.tag) {
						continue
					}
					if a.tag > b.tag {
						a, b = b, a
					}
					conflicts = append(conflicts, Conflict{
						TileType: tileType,
						Pos:      pos,
						A:        TagPolarity{Tag: a.tag, Polarity: a.polarity},
						B:        TagPolarity{Tag: b.tag, Polarity: b.polarity},
					})
				}
			}
		}
	}

	slices.SortFunc(conflicts, compareConflicts)
	return conflicts
}

func compareConflicts(a, b Conflict) int {
	return cmp.Or(
		strings.Compare(a.TileType, b.TileType),
		observation.ComparePos(a.Pos, b.Pos),
		strings.Compare(a.A.Tag, b.A.Tag),
		strings.Compare(a.B.Tag, b.B.Tag),
	)
}

func markConflicted(r *Result) {
	if len(r.Conflicts) == 0 {
		return
	}
	involved := make(map[observation.Key]struct{}, 2*len(r.Conflicts))
	for _, c := range r.Conflicts {
		involved[observation.Key{TileType: c.TileType, Tag: c.A.Tag}] = struct{}{}
		involved[observation.Key{TileType: c.TileType, Tag: c.B.Tag}] = struct{}{}
	}
	for i := range r.Solved {
		if _, ok := involved[r.Solved[i].Key]; ok {
			r.Solved[i].Conflicted = true
		}
	}
}
