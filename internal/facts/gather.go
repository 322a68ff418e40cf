package facts

import (
	"context"
	"fmt"

	"autofill/internal/form"
)

// ProfileLoader reads one stored profile of facts.
type ProfileLoader interface {
	Load(ctx context.Context, profile string) (*form.ValueMap, error)
}

// Gather builds the known-facts map for a run. The stored profile comes
// first when st is non-nil, then each file in order; later sources win.
// first_name and last_name are derived from name when missing.
func Gather(ctx context.Context, files []string, st ProfileLoader, profile string) (*form.ValueMap, error) {
	var sources []*form.ValueMap

	if st != nil {
		m, err := st.Load(ctx, profile)
		if err != nil {
			return nil, fmt.Errorf("load profile %q: %w", profile, err)
		}
		sources = append(sources, m)
	}

	for _, path := range files {
		m, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, m)
	}

	return WithNameParts(Merge(sources...)), nil
}
