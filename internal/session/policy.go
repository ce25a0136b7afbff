package session

import (
	"fmt"
	"strings"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// CompletionPolicy decides when a basket transitions to Completed. The
// rule is configuration, not code: different deployments ran different
// rules, so the accumulator only ever sees this predicate.
type CompletionPolicy interface {
	Name() string
	Satisfied(items []types.Item) bool
}

// DistinctCountPolicy completes once the basket holds the target number
// of distinct item ids. The demo default: three distinct scans.
type DistinctCountPolicy struct {
	Target int
}

func (p DistinctCountPolicy) Name() string { return "distinct-count" }

func (p DistinctCountPolicy) Satisfied(items []types.Item) bool {
	if p.Target <= 0 {
		return false
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
	}
	return len(seen) >= p.Target
}

// ItemCountPolicy completes once the basket holds the target number of
// items, duplicates included.
type ItemCountPolicy struct {
	Target int
}

func (p ItemCountPolicy) Name() string { return "item-count" }

func (p ItemCountPolicy) Satisfied(items []types.Item) bool {
	return p.Target > 0 && len(items) >= p.Target
}

// CatalogCoveragePolicy completes once every catalog item appears in the
// basket at least once.
type CatalogCoveragePolicy struct {
	Catalog *catalog.Catalog
}

func (p CatalogCoveragePolicy) Name() string { return "catalog-coverage" }

func (p CatalogCoveragePolicy) Satisfied(items []types.Item) bool {
	if p.Catalog == nil || p.Catalog.Size() == 0 {
		return false
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
	}
	for _, want := range p.Catalog.Items() {
		if !seen[want.ID] {
			return false
		}
	}
	return true
}

// ManualPolicy never completes on an add; completion waits for an
// explicit checkout signal.
type ManualPolicy struct{}

func (ManualPolicy) Name() string                      { return "manual" }
func (ManualPolicy) Satisfied(items []types.Item) bool { return false }

// PolicyFromConfig resolves a COMPLETION_RULE value.
func PolicyFromConfig(rule string, target int, cat *catalog.Catalog) (CompletionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "", "distinct-count":
		return DistinctCountPolicy{Target: target}, nil
	case "item-count":
		return ItemCountPolicy{Target: target}, nil
	case "catalog-coverage":
		return CatalogCoveragePolicy{Catalog: cat}, nil
	case "manual":
		return ManualPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown completion rule %q", rule)
	}
}
