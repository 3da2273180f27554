package domain

import "context"

// Fetcher retrieves the raw body behind a URL. Failures wrap ErrTransport.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CatalogPublisher announces finished datasets to the downstream catalog.
type CatalogPublisher interface {
	Publish(ctx context.Context, meta DatasetMeta) error
}
