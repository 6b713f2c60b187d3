package di

import "testing"

type counter struct{ n int }

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*counter]("test:counter")

	builds := 0
	RegisterToken(c, tok, func(sr ServiceRegistry) *counter {
		builds++
		return &counter{n: 42}
	})

	if builds != 0 {
		t.Fatalf("factory ran before first Get")
	}

	a := GetToken(c, tok)
	b := GetToken(c, tok)
	if a != b {
		t.Error("expected the same instance on every Get")
	}
	if builds != 1 {
		t.Errorf("expected 1 build, got %d", builds)
	}
	if a.n != 42 {
		t.Errorf("expected 42, got %d", a.n)
	}
}

func TestRegisterToken_ResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("base", 10)

	tok := NewToken[int]("test:derived")
	RegisterToken(c, tok, func(sr ServiceRegistry) int {
		return sr.Get("base").(int) * 2
	})

	if got := GetToken(c, tok); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestGet_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()

	NewContainer().Get("missing")
}

func TestGet_CyclePanics(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory("a", func(sr ServiceRegistry) any { return sr.Get("b") })
	c.RegisterFactory("b", func(sr ServiceRegistry) any { return sr.Get("a") })

	defer func() {
		if recover() == nil {
			t.Error("expected panic for dependency cycle")
		}
	}()

	c.Get("a")
}
