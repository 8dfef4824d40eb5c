package utils

import "strings"

// -----------------------------------------------------------------------------

// MaskEndpoint hides query-string credentials in an endpoint URL before it is
// written to the logs.
func MaskEndpoint(endpoint string) string {
	idx := strings.IndexByte(endpoint, '?')
	if idx < 0 {
		return endpoint
	}
	return endpoint[:idx] + "?***"
}
