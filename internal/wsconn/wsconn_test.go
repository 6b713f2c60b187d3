package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/walletd/internal/apperror"
)

// mockWSServer creates a test WebSocket server running handler per connection.
func mockWSServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
}

// echoHandler echoes messages back to the client.
func echoHandler(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, msgType, data); err != nil {
			return
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig() Config {
	cfg := DefaultConfig("test")
	cfg.PingInterval = 0
	return cfg
}

func TestDial_Success(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	var states []State
	var mu sync.Mutex
	onState := func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), testConfig(), onState)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if !conn.IsConnected() {
		t.Error("expected IsConnected() to return true")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != StateConnecting || states[1] != StateConnected {
		t.Errorf("expected [connecting connected], got %v", states)
	}
}

func TestDial_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://localhost:59999", testConfig(), nil)
	if err == nil {
		t.Fatal("expected Dial to fail with invalid URL")
	}
	if !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("expected WEBSOCKET_CLOSED, got %v", err)
	}
}

func TestConn_SendJSON(t *testing.T) {
	received := make(chan []byte, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return
		}
		received <- data
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), testConfig(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	payload := map[string]any{"type": "sign", "statement": "hello"}
	if err := conn.SendJSON(ctx, payload); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	select {
	case data := <-received:
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("received data is not valid JSON: %v\ndata: %s", err, data)
		}
		if parsed["type"] != "sign" {
			t.Errorf("expected type=sign, got %v", parsed["type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}
}

func TestConn_RunDeliversMessages(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), testConfig(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	msgReceived := make(chan []byte, 1)
	runDone := make(chan error, 1)
	go func() {
		runDone <- conn.Run(ctx, func(_ context.Context, msg []byte) {
			msgReceived <- msg
		})
	}()

	testMsg := []byte(`{"test":"message"}`)
	if err := conn.Send(ctx, testMsg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-msgReceived:
		if string(got) != string(testMsg) {
			t.Errorf("expected %s, got %s", testMsg, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("Run returned %v after cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if conn.State() != StateClosed {
		t.Errorf("expected closed, got %s", conn.State())
	}
}

func TestConn_GracefulClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), testConfig(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if conn.State() != StateClosed {
		t.Errorf("expected state %v, got %v", StateClosed, conn.State())
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close should not error: %v", err)
	}
	if err := conn.SendJSON(ctx, "late"); !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("expected WEBSOCKET_CLOSED after close, got %v", err)
	}
}

func TestConn_ConcurrentSend(t *testing.T) {
	var msgCount atomic.Int32

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
			msgCount.Add(1)
		}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), testConfig(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	const numGoroutines = 10
	const msgsPerGoroutine = 5
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < msgsPerGoroutine; j++ {
				if err := conn.SendJSON(ctx, map[string]int{"goroutine": id, "msg": j}); err != nil {
					t.Errorf("SendJSON failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	expected := int32(numGoroutines * msgsPerGoroutine)
	deadline := time.Now().Add(2 * time.Second)
	for msgCount.Load() < expected && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := msgCount.Load(); got != expected {
		t.Errorf("expected %d messages, server received %d", expected, got)
	}
}

func TestConn_ReadLimit(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.Write(context.Background(), websocket.MessageText, []byte(strings.Repeat("A", 4096)))
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	cfg := testConfig()
	cfg.ReadLimit = 1024

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), cfg, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	var delivered atomic.Bool
	err = conn.Run(ctx, func(context.Context, []byte) { delivered.Store(true) })
	if err == nil {
		t.Error("expected Run to fail on an oversized frame")
	}
	if delivered.Load() {
		t.Error("oversized frame must not be delivered")
	}
}
