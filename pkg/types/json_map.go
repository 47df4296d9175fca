package types

// JSONMap is free-form metadata persisted as jsonb.
type JSONMap map[string]any
