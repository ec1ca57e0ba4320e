// Package registry implements the translator registry (ports.TranslatorRegistry),
// grounded on the teacher's internal/infrastructure/plugin/registry.go:
// mutex-protected maps, dependency validation via DFS cycle detection, and
// a stable ordering derived from a topological sort combined with each
// translator's declared priority.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

// Registry is the concrete, concurrency-safe ports.TranslatorRegistry.
type Registry struct {
	mu         sync.RWMutex
	byType     map[translator.Type]ports.Translator
	order      []translator.Type
	validated  bool
}

var _ ports.TranslatorRegistry = (*Registry)(nil)

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byType: make(map[translator.Type]ports.Translator)}
}

// Register adds t to the registry. Registering the same type twice is an
// error — translators are singletons per module.
func (r *Registry) Register(t ports.Translator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	md := t.Metadata()
	if err := md.Validate(); err != nil {
		return err
	}
	if _, exists := r.byType[md.Type]; exists {
		return confderr.New(confderr.ErrCodeDuplicate, "translator already registered",
			map[string]interface{}{"type": string(md.Type)})
	}
	r.byType[md.Type] = t
	r.validated = false
	return nil
}

// ValidateDependencies checks that every declared dependency resolves to a
// registered translator and that the dependency graph is acyclic, then
// computes and caches the priority-and-topology ordering consumed by
// Ordered.
func (r *Registry) ValidateDependencies() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for typ, t := range r.byType {
		for _, dep := range t.Metadata().Dependencies {
			if _, ok := r.byType[dep]; !ok {
				return confderr.New(confderr.ErrCodeDependency, "translator depends on an unregistered translator",
					map[string]interface{}{"translator": string(typ), "dependency": string(dep)})
			}
		}
	}

	visiting := make(map[translator.Type]bool)
	visited := make(map[translator.Type]bool)
	var path []translator.Type

	var visit func(typ translator.Type) error
	visit = func(typ translator.Type) error {
		if visited[typ] {
			return nil
		}
		if visiting[typ] {
			return confderr.New(confderr.ErrCodeDependency, "translator dependency cycle detected",
				map[string]interface{}{"cycle": appendType(path, typ)})
		}
		visiting[typ] = true
		path = append(path, typ)
		for _, dep := range r.byType[typ].Metadata().Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		visiting[typ] = false
		visited[typ] = true
		return nil
	}

	types := make([]translator.Type, 0, len(r.byType))
	for typ := range r.byType {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, typ := range types {
		if err := visit(typ); err != nil {
			return err
		}
	}

	ordered := r.topologicalOrder(types)
	r.order = ordered
	r.validated = true
	return nil
}

// topologicalOrder runs Kahn's algorithm over the dependency edges,
// breaking ties first by declared Priority (lower runs earlier) and then
// by Type name for determinism.
func (r *Registry) topologicalOrder(types []translator.Type) []translator.Type {
	indegree := make(map[translator.Type]int, len(types))
	dependents := make(map[translator.Type][]translator.Type)
	for _, typ := range types {
		indegree[typ] = 0
	}
	for _, typ := range types {
		for _, dep := range r.byType[typ].Metadata().Dependencies {
			indegree[typ]++
			dependents[dep] = append(dependents[dep], typ)
		}
	}

	var ready []translator.Type
	for _, typ := range types {
		if indegree[typ] == 0 {
			ready = append(ready, typ)
		}
	}
	sortByPriority := func(list []translator.Type) {
		sort.Slice(list, func(i, j int) bool {
			pi := r.byType[list[i]].Metadata().Priority
			pj := r.byType[list[j]].Metadata().Priority
			if pi != pj {
				return pi < pj
			}
			return list[i] < list[j]
		})
	}
	sortByPriority(ready)

	var order []translator.Type
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		var newlyReady []translator.Type
		for _, d := range dependents[next] {
			indegree[d]--
			if indegree[d] == 0 {
				newlyReady = append(newlyReady, d)
			}
		}
		sortByPriority(newlyReady)
		ready = append(ready, newlyReady...)
		sortByPriority(ready)
	}
	return order
}

// Ordered returns the translators in the dependency-then-priority order
// computed by the last ValidateDependencies call. Translators registered
// after that call are not included until ValidateDependencies runs again.
func (r *Registry) Ordered() []ports.Translator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.Translator, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.byType[typ])
	}
	return out
}

// Get looks up a translator by type.
func (r *Registry) Get(typ translator.Type) (ports.Translator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byType[typ]
	if !ok {
		return nil, confderr.New(confderr.ErrCodeNotFound, "translator not registered",
			map[string]interface{}{"type": string(typ)})
	}
	return t, nil
}

func appendType(path []translator.Type, typ translator.Type) string {
	s := ""
	for _, p := range path {
		s += fmt.Sprintf("%s -> ", p)
	}
	return s + string(typ)
}
