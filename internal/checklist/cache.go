package checklist

import (
	"fmt"

	"github.com/patrickmn/go-cache"
)

// Invalidator drops the cached views a lifecycle change makes stale: the
// open-checklists listing and the vehicle's mileage. Callers rely on this
// happening on every successful exit/return; it is part of the service
// contract, not an optimization.
type Invalidator struct {
	store *cache.Cache
}

// NewInvalidator wraps the response cache shared with the HTTP layer.
func NewInvalidator(store *cache.Cache) *Invalidator {
	return &Invalidator{store: store}
}

// ChecklistsChanged evicts every cached view affected by an exit or return
// on the given vehicle. Keys mirror the request URIs the cache middleware
// stores under.
func (i *Invalidator) ChecklistsChanged(vehicleID int64) {
	if i == nil || i.store == nil {
		return
	}
	i.store.Delete("/api/checklists")
	i.store.Delete("/api/checklists?status=open")
	i.store.Delete("/api/vehicles")
	i.store.Delete(fmt.Sprintf("/api/vehicles/%d", vehicleID))
	i.store.Delete(fmt.Sprintf("/api/vehicles/%d/mileage", vehicleID))
}
