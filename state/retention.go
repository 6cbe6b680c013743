package state

import "time"

// Prune returns the entries whose first-seen stamp falls within window of
// now. Entries with a missing or unparsable stamp are retained: losing data
// is worse than an inflated retention set. Deterministic for a fixed now.
//
// Retention is keyed off first-seen only, so an entry can be pruned while the
// listing is still live on the site and be re-notified once it re-appears.
func Prune(s State, now time.Time, window time.Duration) State {
	cutoff := now.Add(-window)

	pruned := make(State, len(s))
	for url, watch := range s {
		firstSeen, err := watch.FirstSeenTime()
		if err != nil {
			pruned[url] = watch
			continue
		}
		if firstSeen.After(cutoff) {
			pruned[url] = watch
		}
	}
	return pruned
}
