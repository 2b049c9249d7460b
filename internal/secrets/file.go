package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ReadFile loads a flat key/value secrets document.
// Files ending in .env are parsed as dotenv, everything else as YAML.
// Keys with empty values are dropped.
func ReadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".env") {
		vals, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing dotenv secrets file %s: %w", path, err)
		}
		return dropEmpty(vals), nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML secrets file %s: %w", path, err)
	}
	vals := make(map[string]string, len(doc))
	for k, v := range doc {
		switch tv := v.(type) {
		case nil:
		case string:
			vals[k] = tv
		case map[string]any, []any:
			return nil, fmt.Errorf("secrets file %s: key %q must be a scalar", path, k)
		default:
			vals[k] = fmt.Sprint(tv)
		}
	}
	return dropEmpty(vals), nil
}

func dropEmpty(vals map[string]string) map[string]string {
	for k, v := range vals {
		if v == "" {
			delete(vals, k)
		}
	}
	return vals
}
