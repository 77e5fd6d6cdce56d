package history

import (
	"fmt"
	"slices"

	"github.com/ciricc/btc-address-indexer/internal/pkg/chain"
	"github.com/ciricc/btc-address-indexer/internal/pkg/watchlist"
)

// Finder looks up the indexed transaction locations of one output script.
type Finder interface {
	Find(script []byte) ([]chain.Location, error)
}

// Status is the confirmed history of a watchlist at one chain tip: the
// per-script locations plus the merged, chronologically sorted and
// deduplicated list across all watched scripts. A status is only valid until
// the index syncs again.
type Status struct {
	byScript  map[string][]chain.Location
	locations []chain.Location
}

// Gather queries the finder for every watched script and merges the results.
func Gather(finder Finder, scripts []watchlist.Script) (*Status, error) {
	status := &Status{
		byScript: make(map[string][]chain.Location, len(scripts)),
	}

	for _, script := range scripts {
		locations, err := finder.Find(script.PkScript)
		if err != nil {
			return nil, fmt.Errorf("failed to find history of %s: %w", script.Address, err)
		}

		status.byScript[string(script.PkScript)] = locations
		status.locations = append(status.locations, locations...)
	}

	slices.SortFunc(status.locations, chain.Location.Compare)
	status.locations = slices.CompactFunc(status.locations, chain.Location.Equal)

	return status, nil
}

// Locations returns the merged watchlist history in chain order, each
// transaction listed once.
func (s *Status) Locations() []chain.Location {
	return s.locations
}

// PerScript returns the history of each watched script, keyed by the raw
// output script.
func (s *Status) PerScript() map[string][]chain.Location {
	return s.byScript
}

// IsWatched reports whether the given output script belongs to the watchlist.
func (s *Status) IsWatched(pkScript []byte) bool {
	_, ok := s.byScript[string(pkScript)]
	return ok
}
