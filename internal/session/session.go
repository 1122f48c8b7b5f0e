// Package session owns the working set: loaded accounts, the concept catalog,
// user overrides and the pagination state, and derives computed views from them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/catalog"
	"github.com/rubros-dev/rubros/internal/filter"
	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/overrides"
	"github.com/rubros-dev/rubros/internal/paging"
	"github.com/rubros-dev/rubros/internal/source"
	"github.com/rubros-dev/rubros/internal/textkey"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// ErrUnknownAccount is returned for operations on an account that is not loaded.
var ErrUnknownAccount = errors.New("account not loaded")

// Backend is the data source a session reads from and writes through.
type Backend interface {
	paging.Fetcher
	AccountDetail(ctx context.Context, accountID string) (model.Account, error)
	CreateLineItem(ctx context.Context, req source.LineItemRequest) error
	UpdateLineItem(ctx context.Context, accountID, conceptID string, pct decimal.Decimal) error
	DeleteLineItem(ctx context.Context, accountID, conceptID string) error
	CreateItem(ctx context.Context, req source.ItemRequest) error
	UpdateItem(ctx context.Context, accountID, code string, ch source.ItemChanges) error
	DeleteItem(ctx context.Context, accountID, code string) error
}

// Config configures a Session.
type Config struct {
	PageSize  int
	Waterfall waterfall.Config
	Logger    *slog.Logger
}

// Session is safe for concurrent use.
type Session struct {
	ID string

	backend   Backend
	engine    *waterfall.Engine
	overrides *overrides.Store
	loader    *paging.Loader
	logger    *slog.Logger

	mu       sync.RWMutex
	catalog  *catalog.Catalog
	accounts []model.Account
	index    map[string]int
}

// New creates a Session reading from backend.
func New(backend Backend, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		ID:        uuid.NewString(),
		backend:   backend,
		engine:    waterfall.New(cfg.Waterfall),
		overrides: overrides.NewStore(),
		catalog:   catalog.New(),
		index:     make(map[string]int),
	}
	s.logger = logger.With("session", s.ID)
	s.loader = paging.NewLoader(backend, paging.LoaderConfig{
		PageSize: cfg.PageSize,
		Logger:   s.logger,
		OnAdded:  s.absorb,
	})
	return s
}

// absorb takes newly merged accounts into the working set, extending the
// catalog and seeding percentages without touching existing overrides.
func (s *Session) absorb(added []model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range added {
		if _, ok := s.index[a.ID]; ok {
			continue
		}
		s.index[a.ID] = len(s.accounts)
		s.accounts = append(s.accounts, a)
		s.overrides.Seed(a.ID, a.Percentages())
	}
	if n := s.catalog.Extend(added...); n > 0 {
		s.logger.Debug("catalog extended", "added", n, "concepts", s.catalog.Len())
	}
}

// LoadNext fetches the next page.
func (s *Session) LoadNext(ctx context.Context) (paging.Result, error) {
	return s.loader.LoadNext(ctx)
}

// LoadAll fetches pages until pagination ends.
func (s *Session) LoadAll(ctx context.Context) error {
	return s.loader.LoadAll(ctx)
}

// LoadAccount fetches a single account through the detail endpoint and adds it
// to the working set. An account already loaded is left as it is.
func (s *Session) LoadAccount(ctx context.Context, accountID string) (model.Account, error) {
	if a, ok := s.Account(accountID); ok {
		return a, nil
	}
	a, err := s.backend.AccountDetail(ctx, accountID)
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	s.absorb([]model.Account{a})
	return a, nil
}

// Close stops pagination; a fetch in flight is discarded.
func (s *Session) Close() {
	s.loader.Close()
}

// State returns the pagination state.
func (s *Session) State() paging.State { return s.loader.State() }

// HasMore reports whether another page may be requested.
func (s *Session) HasMore() bool { return s.loader.HasMore() }

// Total returns the server-reported total, or the loaded count.
func (s *Session) Total() int { return s.loader.Total() }

// Overrides returns the session's override store.
func (s *Session) Overrides() *overrides.Store { return s.overrides }

// Engine returns the waterfall engine.
func (s *Session) Engine() *waterfall.Engine { return s.engine }

// Accounts returns a copy of the loaded accounts in load order.
func (s *Session) Accounts() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Account returns one loaded account.
func (s *Session) Account(id string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Concepts returns the catalog in display order.
func (s *Session) Concepts() []model.Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Concepts()
}

// ItemView is one computed item.
type ItemView struct {
	Item       model.Item
	BaseQty    decimal.Decimal
	Overridden bool
	Breakdown  waterfall.Breakdown
	Lines      []waterfall.Line
}

// AccountView is one visible account with its computed items.
type AccountView struct {
	ID          string
	Name        string
	Percentages model.PercentageConfig
	Items       []ItemView
}

// View computes every visible account and item under the selection and query.
// Lines follow catalog order.
func (s *Session) View(sel filter.Selection, query string) []AccountView {
	s.mu.RLock()
	visible := filter.Apply(s.accounts, sel, query)
	concepts := s.catalog.Concepts()
	s.mu.RUnlock()

	views := make([]AccountView, 0, len(visible))
	for _, a := range visible {
		pcts := s.overrides.Percentages(a.ID)
		av := AccountView{ID: a.ID, Name: a.Name, Percentages: pcts}
		for _, it := range a.Items {
			override, overridden := s.overrides.ItemOverride(a.ID, it.Code)
			base := it.BaseQty
			if overridden {
				base = override
			}
			b := s.engine.Compute(waterfall.Input{BaseQty: base, CostQty: it.CostQty}, pcts)
			av.Items = append(av.Items, ItemView{
				Item:       it,
				BaseQty:    base,
				Overridden: overridden,
				Breakdown:  b,
				Lines:      b.Vector(concepts),
			})
		}
		views = append(views, av)
	}
	return views
}

// Summary totals the computed breakdowns of every visible item per product
// code, overrides included. codes are matched on normalized keys; none means
// every product. Products keep the order in which they are first seen.
func (s *Session) Summary(sel filter.Selection, codes []string) []waterfall.ProductSummary {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[textkey.Normalize(c)] = true
	}

	sum := waterfall.NewSummarizer()
	for _, av := range s.View(sel, "") {
		for _, iv := range av.Items {
			if len(wanted) > 0 && !wanted[textkey.Normalize(iv.Item.Code)] {
				continue
			}
			sum.Add(iv.Item.Code, iv.Item.Name, iv.Breakdown)
		}
	}
	return sum.Summaries()
}

// CreateLineItem creates a line item on a loaded account. Local state changes
// only after the backend acknowledges.
func (s *Session) CreateLineItem(ctx context.Context, accountID, conceptID, name, rawPct string) error {
	a, ok := s.Account(accountID)
	if !ok {
		return fmt.Errorf("creating line item on %s: %w", accountID, ErrUnknownAccount)
	}
	pct := overrides.ClampPercent(rawPct)
	err := s.backend.CreateLineItem(ctx, source.LineItemRequest{
		AccountID:   accountID,
		AccountName: a.Name,
		ConceptID:   conceptID,
		Name:        name,
		Percentage:  pct,
	})
	if err != nil {
		return fmt.Errorf("creating line item %s on %s: %w", conceptID, accountID, err)
	}

	def := model.LineItemDef{ConceptID: conceptID, Name: name, Percentage: pct}
	s.mutate(accountID, func(a *model.Account) {
		a.LineItems = append(a.LineItems, def)
	})
	s.mu.Lock()
	s.catalog.Extend(model.Account{ID: accountID, LineItems: []model.LineItemDef{def}})
	s.mu.Unlock()
	s.overrides.SetPercentage(accountID, conceptID, pct)
	return nil
}

// UpdateLineItem sets a line item's percentage on the backend, then locally.
func (s *Session) UpdateLineItem(ctx context.Context, accountID, conceptID, rawPct string) error {
	if _, ok := s.Account(accountID); !ok {
		return fmt.Errorf("updating line item on %s: %w", accountID, ErrUnknownAccount)
	}
	pct := overrides.ClampPercent(rawPct)
	if err := s.backend.UpdateLineItem(ctx, accountID, conceptID, pct); err != nil {
		return fmt.Errorf("updating line item %s on %s: %w", conceptID, accountID, err)
	}

	s.mutate(accountID, func(a *model.Account) {
		for i := range a.LineItems {
			if a.LineItems[i].ConceptID == conceptID {
				a.LineItems[i].Percentage = pct
			}
		}
	})
	s.overrides.SetPercentage(accountID, conceptID, pct)
	return nil
}

// DeleteLineItem removes a line item on the backend, then locally. The concept
// stays in the catalog.
func (s *Session) DeleteLineItem(ctx context.Context, accountID, conceptID string) error {
	if _, ok := s.Account(accountID); !ok {
		return fmt.Errorf("deleting line item on %s: %w", accountID, ErrUnknownAccount)
	}
	if err := s.backend.DeleteLineItem(ctx, accountID, conceptID); err != nil {
		return fmt.Errorf("deleting line item %s on %s: %w", conceptID, accountID, err)
	}

	s.mutate(accountID, func(a *model.Account) {
		kept := a.LineItems[:0:0]
		for _, li := range a.LineItems {
			if li.ConceptID != conceptID {
				kept = append(kept, li)
			}
		}
		a.LineItems = kept
	})
	s.overrides.DeletePercentage(accountID, conceptID)
	return nil
}

// CreateItem creates an item on a loaded account from editor text.
func (s *Session) CreateItem(ctx context.Context, accountID, code, name, rawBase, rawCost string) error {
	a, ok := s.Account(accountID)
	if !ok {
		return fmt.Errorf("creating item on %s: %w", accountID, ErrUnknownAccount)
	}
	it := model.Item{
		Code:    code,
		Name:    name,
		BaseQty: overrides.ClampMoney(rawBase),
		CostQty: overrides.ClampMoney(rawCost),
	}
	err := s.backend.CreateItem(ctx, source.ItemRequest{
		AccountID:   accountID,
		AccountName: a.Name,
		Code:        it.Code,
		Name:        it.Name,
		BaseQty:     it.BaseQty,
		CostQty:     it.CostQty,
	})
	if err != nil {
		return fmt.Errorf("creating item %s on %s: %w", code, accountID, err)
	}

	s.mutate(accountID, func(a *model.Account) {
		a.Items = append(a.Items, it)
	})
	return nil
}

// UpdateItem applies changes to an item on the backend, then locally.
func (s *Session) UpdateItem(ctx context.Context, accountID, code string, ch source.ItemChanges) error {
	if _, ok := s.Account(accountID); !ok {
		return fmt.Errorf("updating item on %s: %w", accountID, ErrUnknownAccount)
	}
	if err := s.backend.UpdateItem(ctx, accountID, code, ch); err != nil {
		return fmt.Errorf("updating item %s on %s: %w", code, accountID, err)
	}

	s.mutate(accountID, func(a *model.Account) {
		for i := range a.Items {
			if a.Items[i].Code != code {
				continue
			}
			if ch.Name != nil {
				a.Items[i].Name = *ch.Name
			}
			if ch.BaseQty != nil {
				a.Items[i].BaseQty = *ch.BaseQty
			}
			if ch.CostQty != nil {
				a.Items[i].CostQty = *ch.CostQty
			}
		}
	})
	return nil
}

// DeleteItem removes an item on the backend, then locally, dropping its override.
func (s *Session) DeleteItem(ctx context.Context, accountID, code string) error {
	if _, ok := s.Account(accountID); !ok {
		return fmt.Errorf("deleting item on %s: %w", accountID, ErrUnknownAccount)
	}
	if err := s.backend.DeleteItem(ctx, accountID, code); err != nil {
		return fmt.Errorf("deleting item %s on %s: %w", code, accountID, err)
	}

	s.mutate(accountID, func(a *model.Account) {
		kept := a.Items[:0:0]
		for _, it := range a.Items {
			if it.Code != code {
				kept = append(kept, it)
			}
		}
		a.Items = kept
	})
	s.overrides.ClearItemOverride(accountID, code)
	return nil
}

// mutate edits a loaded account in place. Slices are rebuilt by fn so views
// handed out earlier keep their contents.
func (s *Session) mutate(accountID string, fn func(a *model.Account)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[accountID]
	if !ok {
		return
	}
	a := s.accounts[i]
	a.LineItems = append([]model.LineItemDef(nil), a.LineItems...)
	a.Items = append([]model.Item(nil), a.Items...)
	fn(&a)
	s.accounts[i] = a
}
