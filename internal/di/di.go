// Package di provides a minimal service registry with lazy construction.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry provides read access to registered services.
type ServiceRegistry interface {
	// Get returns the service registered under name, constructing it on
	// first access if it was registered through a factory. Panics if the
	// name is unknown.
	Get(name string) any
}

// Container extends ServiceRegistry with registration.
type Container interface {
	ServiceRegistry
	// Register stores an already-constructed service instance.
	Register(name string, svc any)
	// RegisterFactory stores a factory invoked lazily on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	instance any
	factory  func(ServiceRegistry) any
	once     sync.Once
}

type container struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{instance: svc}
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory}
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// The factory runs at most once; concurrent callers block until the
	// instance exists. The container lock is not held here, so factories
	// can resolve their own dependencies through the registry.
	e.once.Do(func() {
		if e.factory != nil {
			e.instance = e.factory(c)
		}
	})
	return e.instance
}

// Token is a typed service key.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token for the given service name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory under the token's name.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service from the registry.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	return sr.Get(token.name).(T)
}
