package progress

import (
	"log"

	"github.com/desafio-logico/desafio/internal/domain"
)

// ResetUserLocalData deletes every key this user owns in every tier:
// profile, economy, daily, cosmetics, anti-farm sets and any key family
// registered by sibling components. The migration flag survives so a later
// migration does not resurrect plain data. Other users are untouched.
// Returns the number of keys removed.
func (s *Store) ResetUserLocalData() int {
	removed := 0
	tiers := []domain.KeyValueStore{s.plain, s.secure}
	if s.fallback != nil {
		tiers = append(tiers, s.fallback)
	}
	for _, tier := range tiers {
		for _, spec := range s.keySpecs() {
			for _, key := range s.resolve(tier, spec) {
				if !tier.Contains(key) {
					continue
				}
				if err := tier.Remove(key); err != nil {
					log.Printf("[progress] reset %s: %v", key, err)
					continue
				}
				removed++
			}
		}
	}
	log.Printf("[progress] reset local data for %s (%d keys)", s.scope.User(), removed)
	return removed
}
