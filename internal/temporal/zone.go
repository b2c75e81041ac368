package temporal

import (
	"time"

	// Embedded IANA database so zone checks do not depend on the host.
	_ "time/tzdata"
)

// CheckTimeZone reports whether name is a known IANA time zone.
func CheckTimeZone(name string) error {
	if name == "" || name == "Local" {
		return invalid("timeZone", name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return invalid("timeZone", name)
	}
	return nil
}
