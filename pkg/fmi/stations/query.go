package stations

import (
	"context"
	"net/url"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// Get fetches the full station catalog from the API.
func Get(ctx context.Context, client *fmi.Client) (*Catalog, error) {
	params := url.Values{
		"request":        {"getFeature"},
		"storedquery_id": {"fmi::ef::stations"},
	}
	doc, err := client.QueryWFS(ctx, params)
	if err != nil {
		return nil, err
	}
	return Parse(doc)
}
