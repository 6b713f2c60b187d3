package monolith

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fd1az/walletd/internal/config"
	"github.com/fd1az/walletd/internal/di"
	"github.com/fd1az/walletd/internal/logger"
)

type recordingModule struct {
	name  string
	calls *[]string
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m recordingModule) Startup(_ context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	mono.OnClose(func(context.Context) error {
		*m.calls = append(*m.calls, "close:"+m.name)
		return nil
	})
	return nil
}

func TestLifecycle(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	a, err := New(&config.Config{}, log, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var calls []string
	mods := []Module{recordingModule{"a", &calls}, recordingModule{"b", &calls}}

	if err := a.RegisterModules(mods...); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := a.StartModules(context.Background(), mods...); err != nil {
		t.Fatalf("StartModules: %v", err)
	}
	if got := a.Services().Get("b"); got != "b" {
		t.Errorf("expected registered service, got %v", got)
	}
	if a.HTTPClient() == nil {
		t.Error("expected an http client")
	}

	a.OnClose(func(context.Context) error { return errors.New("flush failed") })
	err = a.Close(context.Background())
	if err == nil || err.Error() != "flush failed" {
		t.Errorf("expected joined closer error, got %v", err)
	}

	want := []string{"register:a", "register:b", "start:a", "start:b", "close:b", "close:a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestNew_RPCClientFromConfig(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	cfg := &config.Config{}
	cfg.Networks.RPCTimeout = 3 * time.Second

	a, err := New(cfg, log, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.HTTPClient().Timeout; got != 3*time.Second {
		t.Errorf("expected configured timeout, got %s", got)
	}
}
