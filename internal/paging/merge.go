// Package paging folds successive pages of accounts into one working set and
// tracks whether more pages remain.
package paging

import "github.com/rubros-dev/rubros/internal/model"

// Result is the outcome of merging one page.
type Result struct {
	Accounts []model.Account // existing accounts followed by the newly added ones
	Added    []model.Account // accounts that were not present before
	HasMore  bool
	Total    int
}

// MergePage appends accounts from incoming whose id is not already present.
// Existing accounts are never replaced, so edits keyed by them survive re-fetches.
//
// When serverTotal is known, HasMore is len(merged) < total (an empty page also
// ends pagination). Otherwise HasMore is len(incoming) == pageSize.
func MergePage(existing, incoming []model.Account, pageSize int, serverTotal *int) Result {
	seen := model.IndexByID(existing)
	merged := make([]model.Account, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	var added []model.Account
	for _, a := range incoming {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = len(merged)
		merged = append(merged, a)
		added = append(added, a)
	}

	res := Result{Accounts: merged, Added: added}
	if serverTotal != nil {
		res.Total = *serverTotal
		res.HasMore = len(merged) < *serverTotal && len(incoming) > 0
	} else {
		res.Total = len(merged)
		res.HasMore = pageSize > 0 && len(incoming) == pageSize
	}
	return res
}
