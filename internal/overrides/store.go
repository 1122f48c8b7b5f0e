// Package overrides holds user edits to percentage configurations and item
// base quantities, layered over the values loaded from the backend.
package overrides

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
)

type accountEdits struct {
	pcts  model.PercentageConfig
	items map[string]decimal.Decimal
}

// Store keeps per-account percentage configurations and per-item base quantity overrides.
// Commits never fail: malformed text commits as 0.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*accountEdits
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]*accountEdits)}
}

func (s *Store) edits(accountID string) *accountEdits {
	ae, ok := s.accounts[accountID]
	if !ok {
		ae = &accountEdits{
			pcts:  make(model.PercentageConfig),
			items: make(map[string]decimal.Decimal),
		}
		s.accounts[accountID] = ae
	}
	return ae
}

// Seed fills in backend-provided percentages for keys the account does not
// have yet. Existing values, including user commits, are never replaced.
func (s *Store) Seed(accountID string, pcts model.PercentageConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ae := s.edits(accountID)
	for id, v := range pcts {
		if _, ok := ae.pcts[id]; !ok {
			ae.pcts[id] = v
		}
	}
}

// EffectiveBaseQty returns the item's override if one is set, otherwise loaded.
func (s *Store) EffectiveBaseQty(accountID, itemCode string, loaded decimal.Decimal) decimal.Decimal {
	if v, ok := s.ItemOverride(accountID, itemCode); ok {
		return v
	}
	return loaded
}

// ItemOverride returns the committed base quantity override for an item.
func (s *Store) ItemOverride(accountID, itemCode string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ae, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := ae.items[itemCode]
	return v, ok
}

// CommitItemOverride parses a thousands-formatted amount and stores it as the
// item's base quantity. It returns the stored value.
func (s *Store) CommitItemOverride(accountID, itemCode, raw string) decimal.Decimal {
	v := ParseThousands(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits(accountID).items[itemCode] = v
	return v
}

// ClearItemOverride removes an item's override so the loaded quantity applies again.
func (s *Store) ClearItemOverride(accountID, itemCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ae, ok := s.accounts[accountID]; ok {
		delete(ae.items, itemCode)
	}
}

// EffectivePercentage returns the account's percentage for a concept.
// ok is false when the engine default should apply.
func (s *Store) EffectivePercentage(accountID, conceptID string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ae, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, false
	}
	return ae.pcts.Get(conceptID)
}

// CommitPercentage parses editor text (comma or dot decimals, clamped to
// [0, 9999]) and stores it. It returns the stored value.
func (s *Store) CommitPercentage(accountID, conceptID, raw string) decimal.Decimal {
	return s.store(accountID, conceptID, ParsePercent(raw))
}

// SetPercentage stores an already-parsed percentage, clamped to [-9999, 9999].
func (s *Store) SetPercentage(accountID, conceptID string, v decimal.Decimal) decimal.Decimal {
	return s.store(accountID, conceptID, clamp(v, pctMin, pctMax))
}

// DeletePercentage removes a concept from the account's configuration.
func (s *Store) DeletePercentage(accountID, conceptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ae, ok := s.accounts[accountID]; ok {
		delete(ae.pcts, conceptID)
	}
}

func (s *Store) store(accountID, conceptID string, v decimal.Decimal) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits(accountID).pcts[conceptID] = v
	return v
}

// Percentages returns a snapshot of the account's percentage configuration.
func (s *Store) Percentages(accountID string) model.PercentageConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ae, ok := s.accounts[accountID]
	if !ok {
		return model.PercentageConfig{}
	}
	return ae.pcts.Clone()
}

// ItemOverrides returns a snapshot of the account's item overrides.
func (s *Store) ItemOverrides(accountID string) map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal)
	if ae, ok := s.accounts[accountID]; ok {
		for k, v := range ae.items {
			out[k] = v
		}
	}
	return out
}

// AccountIDs returns the ids of accounts with any stored state.
func (s *Store) AccountIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	return ids
}
