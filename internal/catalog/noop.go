package catalog

// NoopCatalog is a no-op implementation used when SQLite is not configured.
type NoopCatalog struct{}

func NewNoopCatalog() *NoopCatalog { return &NoopCatalog{} }

func (n *NoopCatalog) UpsertAll(_ []Coin) error               { return nil }
func (n *NoopCatalog) Search(_ string, _ int) ([]Coin, error) { return nil, nil }
func (n *NoopCatalog) Close() error                           { return nil }
