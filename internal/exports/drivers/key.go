package drivers

import (
	"fmt"
	"strings"
)

// Export keys are flat file names minted by the export service
// ("purchase-plan-<id>.csv"), never caller-supplied paths. Both drivers
// reject anything that looks like a path before touching storage.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("export key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid export key %q", key)
	}
	return nil
}

// contentTypeForKey derives the content type from the key's extension.
// Exports are CSV today; anything else streams as a generic octet stream.
func contentTypeForKey(key string) string {
	if strings.HasSuffix(key, ".csv") {
		return "text/csv"
	}
	return "application/octet-stream"
}
