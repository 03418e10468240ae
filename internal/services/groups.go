package services

import (
	"sort"
	"strings"

	"caravanas/internal/domain/models"
	"caravanas/internal/utils"
)

// PassengerGroup is the derived view of one (grupo_nome, grupo_cor) tag.
type PassengerGroup struct {
	Name       string                 `json:"grupo_nome"`
	Color      string                 `json:"grupo_cor"`
	Members    []models.TripPassenger `json:"membros"`
	Count      int                    `json:"quantidade"`
	ByBus      map[int64]int          `json:"por_onibus"`
	Unassigned int                    `json:"sem_onibus"`
	SpansBuses bool                   `json:"dividido"`
}

type groupKey struct{ name, color string }

// DeriveGroups groups passengers by trimmed (name, color) equality. Passengers
// without a group name are skipped. Output is ordered by name, then color.
func DeriveGroups(passengers []models.TripPassenger) []PassengerGroup {
	index := map[groupKey]int{}
	out := []PassengerGroup{}
	for _, p := range passengers {
		name, color, ok := p.Group()
		if !ok {
			continue
		}
		k := groupKey{name, color}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, PassengerGroup{Name: name, Color: color, ByBus: map[int64]int{}})
		}
		g := &out[i]
		g.Members = append(g.Members, p)
		g.Count++
		if p.BusID == nil {
			g.Unassigned++
		} else {
			g.ByBus[*p.BusID]++
		}
	}
	for i := range out {
		out[i].SpansBuses = len(out[i].ByBus) > 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Color < out[j].Color
	})
	return out
}

// GroupsByBus derives groups from the passengers seated on busID only.
func GroupsByBus(passengers []models.TripPassenger, busID int64) []PassengerGroup {
	onBus := make([]models.TripPassenger, 0, len(passengers))
	for _, p := range passengers {
		if p.OnBus(busID) {
			onBus = append(onBus, p)
		}
	}
	return DeriveGroups(onBus)
}

// FilterGroups keeps groups whose folded name contains the folded search.
func FilterGroups(groups []PassengerGroup, search string) []PassengerGroup {
	key := utils.FoldGroupName(search)
	if key == "" {
		return groups
	}
	out := make([]PassengerGroup, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(utils.FoldGroupName(g.Name), key) {
			out = append(out, g)
		}
	}
	return out
}
