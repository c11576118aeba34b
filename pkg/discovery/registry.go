// Package discovery implements the resource registry behind GET
// /discovery/resources (§4.8): a process-local index of resources this
// facilitator has seen payment requirements for, published by resource
// servers and paginated back out to clients building x402-aware directories.
package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/x402-network/facilitator/pkg/types"
)

// Registry holds published resources in memory, keyed by resource URL.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]types.DiscoveryResource
	now   func() int64
}

// NewRegistry builds an empty Registry. nowFn supplies the Unix timestamp
// stamped on Publish as LastUpdated; production code should pass
// time.Now().Unix(), tests a fixed clock.
func NewRegistry(nowFn func() int64) *Registry {
	return &Registry{items: make(map[string]types.DiscoveryResource), now: nowFn}
}

// Publish registers or replaces the entry for resource, validating its
// OutputSchema (if any) against the JSON Schema meta-schema before
// accepting it (§4.8 invariant: a resource with an unparsable schema is
// never stored).
func (r *Registry) Publish(ctx context.Context, resource, resourceType string, accepts []types.PaymentRequirements, metadata []byte) error {
	for _, req := range accepts {
		if len(req.OutputSchema) > 0 {
			if err := types.ValidateOutputSchema(req.OutputSchema); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[resource] = types.DiscoveryResource{
		Resource:    resource,
		Type:        resourceType,
		X402Version: types.CurrentX402Version,
		Accepts:     accepts,
		LastUpdated: r.now(),
		Metadata:    metadata,
	}
	return nil
}

// Remove deletes a resource from the registry. A no-op if it was never published.
func (r *Registry) Remove(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, resource)
}

// List returns a page of resources in stable (resource-URL) order, along
// with pagination metadata. Limit <= 0 defaults to 20; offsets beyond the
// end of the set return an empty page rather than an error. resourceType,
// if non-empty, restricts the result to resources published with that
// exact Type (§4.8's optional `type` query parameter); the total in
// Pagination reflects the filtered count, not the registry's full size.
func (r *Registry) List(resourceType string, limit, offset int) types.DiscoveryResponse {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	all := make([]types.DiscoveryResource, 0, len(r.items))
	for _, item := range r.items {
		if resourceType != "" && item.Type != resourceType {
			continue
		}
		all = append(all, item)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Resource < all[j].Resource })

	total := len(all)
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	page := all[offset:end]
	return types.DiscoveryResponse{
		X402Version: types.CurrentX402Version,
		Items:       page,
		Pagination:  types.Pagination{Limit: limit, Offset: offset, Total: total},
	}
}
