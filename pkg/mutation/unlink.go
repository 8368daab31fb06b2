package mutation

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Unlink removes an edge directly (as opposed to KillNode's cascade into
// edges incidental to a node removal). It shares KillEdge's cascade into
// higher-order edges, since an edge used as another edge's target is
// removed the same way regardless of why the removal started (§4.5 UNLINK).
func Unlink(ctx Context, reg *registry.Registry, id store.EntityId) error {
	return KillEdge(ctx, reg, id)
}
