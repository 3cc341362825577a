package conscript

import (
	"github.com/zurustar/conscript/pkg/resource"
)

// LoadContext is the state shared by every reader of one runner: the
// resource store, the temporary-resource store of the active LOAD scope,
// and the scripts currently in the LOAD chain.
type LoadContext struct {
	Resources *resource.Store
	Temp      *resource.Store

	called map[string]struct{}
	saved  []*resource.Store
}

func newLoadContext(resources *resource.Store) *LoadContext {
	if resources == nil {
		resources = resource.NewStore()
	}
	return &LoadContext{
		Resources: resources,
		Temp:      resource.NewStore(),
		called:    make(map[string]struct{}),
	}
}

// StoreFor returns Temp for temp_-prefixed names and Resources otherwise.
func (lc *LoadContext) StoreFor(name string) *resource.Store {
	if resource.IsTemporary(name) {
		return lc.Temp
	}
	return lc.Resources
}

// Active reports whether the script with the given normalized key is part
// of the LOAD chain.
func (lc *LoadContext) Active(key string) bool {
	_, ok := lc.called[key]
	return ok
}

// Depth returns the number of saved temporary scopes.
func (lc *LoadContext) Depth() int {
	return len(lc.saved)
}

func (lc *LoadContext) enter(key string) {
	lc.called[key] = struct{}{}
}

func (lc *LoadContext) leave(key string) {
	delete(lc.called, key)
}

// pushTemp saves the current temporary scope and installs an empty one.
func (lc *LoadContext) pushTemp() {
	lc.saved = append(lc.saved, lc.Temp)
	lc.Temp = resource.NewStore()
}

// popTemp restores the most recently saved temporary scope.
func (lc *LoadContext) popTemp() {
	n := len(lc.saved)
	if n == 0 {
		return
	}
	lc.Temp = lc.saved[n-1]
	lc.saved = lc.saved[:n-1]
}
