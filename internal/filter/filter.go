// Package filter narrows the working set of accounts and items for display.
// Filtering never mutates its inputs.
package filter

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/textkey"
)

// Selection is either every account or an explicit set of account ids.
// The zero value selects every account.
type Selection struct {
	ids   []string
	index map[string]bool
}

// All returns the "all accounts" selection.
func All() Selection {
	return Selection{}
}

// Only returns a selection of the given ids. No ids means all accounts.
func Only(ids ...string) Selection {
	var s Selection
	for _, id := range ids {
		s = s.with(id)
	}
	return s
}

// IsAll reports whether the selection passes every account through.
func (s Selection) IsAll() bool {
	return len(s.ids) == 0
}

// IDs returns the explicitly selected ids in selection order.
func (s Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports whether an account id passes the selection.
func (s Selection) Contains(id string) bool {
	return s.IsAll() || s.index[id]
}

// Toggle adds id to an explicit selection, or removes it if present.
// Removing the last id falls back to all accounts.
func (s Selection) Toggle(id string) Selection {
	if s.index[id] {
		return s.without(id)
	}
	return s.with(id)
}

// SelectAll clears an explicit selection.
func (s Selection) SelectAll() Selection {
	return All()
}

// Label describes the selection for display.
func (s Selection) Label() string {
	if s.IsAll() {
		return "Todos los clientes"
	}
	return fmt.Sprintf("%d cliente(s) seleccionados", len(s.ids))
}

func (s Selection) with(id string) Selection {
	if id == "" || s.index[id] {
		return s
	}
	next := Selection{ids: append(s.IDs(), id), index: make(map[string]bool, len(s.ids)+1)}
	for _, x := range next.ids {
		next.index[x] = true
	}
	return next
}

func (s Selection) without(id string) Selection {
	var next Selection
	for _, x := range s.ids {
		if x != id {
			next = next.with(x)
		}
	}
	return next
}

// Apply returns the accounts passing sel. When query is non-empty, each
// account's items are narrowed to those whose code contains the query, and
// accounts left without items are dropped. Order is preserved.
func Apply(accounts []model.Account, sel Selection, query string) []model.Account {
	q := textkey.Normalize(query)
	out := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if !sel.Contains(a.ID) {
			continue
		}
		if q == "" {
			out = append(out, a)
			continue
		}
		items := Items(a.Items, q)
		if len(items) == 0 {
			continue
		}
		a.Items = items
		out = append(out, a)
	}
	return out
}

// Items returns the items whose code contains query (normalized).
func Items(items []model.Item, query string) []model.Item {
	if textkey.Normalize(query) == "" {
		return items
	}
	var out []model.Item
	for _, it := range items {
		if textkey.Contains(it.Code, query) {
			out = append(out, it)
		}
	}
	return out
}

// Accounts returns accounts whose id or name contains query, for account pickers.
func Accounts(accounts []model.Account, query string) []model.Account {
	if textkey.Normalize(query) == "" {
		return accounts
	}
	var out []model.Account
	for _, a := range accounts {
		if textkey.Contains(a.ID, query) || textkey.Contains(a.Name, query) {
			out = append(out, a)
		}
	}
	return out
}

// LineItems returns definitions whose concept id or name contains query.
func LineItems(defs []model.LineItemDef, query string) []model.LineItemDef {
	if textkey.Normalize(query) == "" {
		return defs
	}
	var out []model.LineItemDef
	for _, d := range defs {
		if textkey.Contains(d.ConceptID, query) || textkey.Contains(d.Name, query) {
			out = append(out, d)
		}
	}
	return out
}

// Suggest returns up to limit candidates closest to id by edit distance on
// normalized keys, nearest first. Candidates further than maxDistance are skipped.
func Suggest(id string, candidates []string, limit, maxDistance int) []string {
	key := textkey.Normalize(id)
	type scored struct {
		value string
		dist  int
	}
	var hits []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(key, textkey.Normalize(c))
		if d <= maxDistance {
			hits = append(hits, scored{c, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	var out []string
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].value)
	}
	return out
}
