package checker

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadAddresses reads a JSON file holding a list of address strings.
// Anything other than a non-empty list of strings is a configuration error;
// the caller is expected to halt before any network activity.
func LoadAddresses(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read addresses file: %w", err)
	}

	var addresses []string
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return nil, fmt.Errorf("addresses file %s is not a JSON list of strings: %w", path, err)
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("addresses file %s contains no addresses", path)
	}
	for i, addr := range addresses {
		if addr == "" {
			return nil, fmt.Errorf("addresses file %s has an empty address at index %d", path, i)
		}
	}
	return addresses, nil
}
