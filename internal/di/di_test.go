package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type service struct {
	name string
}

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	svc := &service{name: "a"}
	c.Register("a", svc)

	if got := c.Get("a"); got != svc {
		t.Errorf("Get returned %v, want the registered instance", got)
	}
}

func TestContainer_FactoryRunsOnceUnderConcurrentGet(t *testing.T) {
	c := NewContainer()

	var built int32
	c.RegisterFactory("svc", func(ServiceRegistry) any {
		atomic.AddInt32(&built, 1)
		return &service{name: "svc"}
	})

	const callers = 16
	results := make([]any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get("svc")
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&built); n != 1 {
		t.Fatalf("factory ran %d times, want 1", n)
	}
	for i, r := range results {
		if r != results[0] {
			t.Errorf("caller %d got a different instance", i)
		}
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("dep", &service{name: "dep"})
	c.RegisterFactory("svc", func(sr ServiceRegistry) any {
		dep := sr.Get("dep").(*service)
		return &service{name: "svc-" + dep.name}
	})

	got := c.Get("svc").(*service)
	if got.name != "svc-dep" {
		t.Errorf("name = %q, want svc-dep", got.name)
	}
}

func TestContainer_UnknownServicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get on an unknown name did not panic")
		}
	}()
	NewContainer().Get("missing")
}

func TestTokens(t *testing.T) {
	c := NewContainer()
	token := NewToken[*service]("typed")

	RegisterToken(c, token, func(ServiceRegistry) *service {
		return &service{name: "typed"}
	})

	got := GetToken(c, token)
	if got.name != "typed" {
		t.Errorf("name = %q, want typed", got.name)
	}
	if token.Name() != "typed" {
		t.Errorf("token name = %q, want typed", token.Name())
	}
}
