package util

import "time"

// MexicoCity is the zone the restriction program operates in. CDMX stopped
// observing DST in 2022, so a fixed offset is correct year round.
var MexicoCity = time.FixedZone("America/Mexico_City", -6*60*60)

// NowCDMX exposes the current Mexico City time for deterministic testing.
func NowCDMX() time.Time {
	return time.Now().In(MexicoCity)
}
