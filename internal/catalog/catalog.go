// Package catalog maintains the ordered set of concepts seen across loaded accounts.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rubros-dev/rubros/internal/model"
)

// Catalog is an append-only, sorted set of concepts. The first account that
// mentions a concept id decides its display name.
type Catalog struct {
	concepts []model.Concept
	byID     map[string]int
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]int)}
}

// NewFromAccounts creates a Catalog extended with accounts in order.
func NewFromAccounts(accounts []model.Account) *Catalog {
	c := New()
	c.Extend(accounts...)
	return c
}

// Extend appends concept ids not yet in the catalog and re-sorts.
// It returns the number of concepts added.
func (c *Catalog) Extend(accounts ...model.Account) int {
	added := 0
	for _, acct := range accounts {
		for _, li := range acct.LineItems {
			if li.ConceptID == "" {
				continue
			}
			if _, ok := c.byID[li.ConceptID]; ok {
				continue
			}
			name := li.Name
			if name == "" {
				name = DefaultName(li.ConceptID)
			}
			c.byID[li.ConceptID] = len(c.concepts)
			c.concepts = append(c.concepts, model.Concept{
				ID:   li.ConceptID,
				Name: name,
				Role: RoleOf(li.ConceptID),
				Meta: MetaOf(li.ConceptID),
			})
			added++
		}
	}
	if added > 0 {
		c.sort()
	}
	return added
}

// Concepts returns a copy of the concepts in catalog order.
func (c *Catalog) Concepts() []model.Concept {
	out := make([]model.Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// Get returns a concept by id.
func (c *Catalog) Get(id string) (model.Concept, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Concept{}, false
	}
	return c.concepts[i], true
}

// Len returns the number of concepts.
func (c *Catalog) Len() int {
	return len(c.concepts)
}

func (c *Catalog) sort() {
	sort.SliceStable(c.concepts, func(i, j int) bool {
		return Less(c.concepts[i].ID, c.concepts[j].ID)
	})
	for i, concept := range c.concepts {
		c.byID[concept.ID] = i
	}
}

// Less orders concept ids: numeric ids ascending by value, then the rest lexicographically.
func Less(a, b string) bool {
	na, aNum := numericID(a)
	nb, bNum := numericID(b)
	switch {
	case aNum && bNum:
		if na != nb {
			return na < nb
		}
		return a < b
	case aNum:
		return true
	case bNum:
		return false
	default:
		return strings.Compare(a, b) < 0
	}
}

func numericID(id string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(id), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
