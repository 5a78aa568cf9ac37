package clock

import "time"

// Clock supplies the current time to services that stamp records or default dates.
type Clock interface {
	Now() time.Time
}
