package state

import "github.com/aluiziolira/watchfinder-tracker/models"

// Diff splits freshly extracted records into the subset whose identity is
// absent from current, in input order, and returns the state with those
// records inserted. Records for already-known identities are discarded so the
// original first-seen stamp is preserved; current is never mutated.
func Diff(current State, extracted []models.Watch) ([]models.Watch, State) {
	updated := current.Clone()

	var fresh []models.Watch
	for _, watch := range extracted {
		if _, known := updated[watch.URL]; known {
			continue
		}
		updated[watch.URL] = watch
		fresh = append(fresh, watch)
	}

	return fresh, updated
}
