package audit

import (
	"fmt"

	"github.com/darmiel/ghtoken/internal/buildinfo"
)

// CreateUserAgent builds the User-Agent sent to GitHub, so requests can be matched with local audit entries.
func CreateUserAgent(correlationID, appID string) string {
	return fmt.Sprintf("ghtoken/%s (correlation_id=%s; app=%s)",
		buildinfo.Version, correlationID, appID)
}
