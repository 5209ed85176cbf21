package normalize

import (
	"time"
)

// Reject timestamps before 2000-01-01 or more than a day past now; provider
// payloads occasionally carry millisecond values or zeroed fields in the
// epoch-seconds slot.
const minEpochSeconds = 946684800

// EpochSeconds converts a seconds-since-epoch value into a UTC time. The
// second return is false for missing (zero), negative or implausible values;
// records with unparseable timestamps are excluded from bucketing.
func EpochSeconds(epoch int64, now time.Time) (time.Time, bool) {
	if epoch < minEpochSeconds {
		return time.Time{}, false
	}

	t := time.Unix(epoch, 0).UTC()
	if t.After(now.Add(24 * time.Hour)) {
		return time.Time{}, false
	}
	return t, true
}
