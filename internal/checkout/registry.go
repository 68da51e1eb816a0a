package checkout

import (
	"fmt"
	"sort"
	"sync"
)

// Factory создаёт адаптер платформы для одной задачи.
type Factory func(session Session) (PlatformAdapter, error)

// Registry — реестр адаптеров платформ.
//
// Позволяет регистрировать и получать фабрики адаптеров по имени
// платформы. Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register регистрирует фабрику адаптера для платформы.
// Если платформа уже зарегистрирована, фабрика будет перезаписана.
func (r *Registry) Register(platform string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[platform] = factory
}

// New создаёт адаптер для платформы.
// Возвращает ErrPlatformNotFound, если платформа не зарегистрирована.
func (r *Registry) New(platform string, session Session) (PlatformAdapter, error) {
	r.mu.RLock()
	factory, exists := r.factories[platform]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotFound, platform)
	}
	return factory(session)
}

// Has проверяет, зарегистрирована ли платформа.
func (r *Registry) Has(platform string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[platform]
	return exists
}

// Platforms возвращает список зарегистрированных платформ.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]string, 0, len(r.factories))
	for p := range r.factories {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}
