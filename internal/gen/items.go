package gen

import (
	"encoding/json"

	"github.com/cadencelabs/cadence/internal/domain"
	cadenceerrors "github.com/cadencelabs/cadence/internal/errors"
)

// ContentItems decodes the list value for key into typed content items.
// A missing key returns (nil, nil) so callers can treat calendar items as
// optional; a present value that does not decode is a schema mismatch.
func (p Payload) ContentItems(key string) ([]domain.ContentItem, error) {
	raw, exists := p[key]
	if !exists {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSchemaMismatch,
			"field '%s' is not a list", key)
	}
	if len(list) == 0 {
		return []domain.ContentItem{}, nil
	}

	encoded, err := json.Marshal(list)
	if err != nil {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSchemaMismatch,
			"field '%s' not encodable: %v", key, err)
	}
	var items []domain.ContentItem
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, cadenceerrors.Wrapf(cadenceerrors.ErrSchemaMismatch,
			"field '%s' does not decode as content items: %v", key, err)
	}
	return items, nil
}
