package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"companion/task"
)

func sampleTask(t *testing.T) *task.Task {
	t.Helper()
	tk, err := task.NewBuilder("Luogu").
		SetURL("https://www.luogu.com.cn/problem/P1001").
		SetName("P1001 A+B Problem").
		SetTimeLimit(1000).
		SetMemoryLimit(128).
		AddTest("1 2", "3").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tk
}

func portOf(t *testing.T, srv *httptest.Server) int {
	t.Helper()
	return srv.Listener.Addr().(*net.TCPAddr).Port
}

// closedPort returns a port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	port := portOf(t, srv)
	srv.Close()
	return port
}

type receiver struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (rc *receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rc.mu.Lock()
	rc.bodies = append(rc.bodies, body)
	rc.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func TestSendSucceedsWhenOnePortAccepts(t *testing.T) {
	rc := &receiver{}
	ok := httptest.NewServer(rc)
	defer ok.Close()
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer rejecting.Close()

	ports := []int{closedPort(t), portOf(t, rejecting), portOf(t, ok)}
	s := New(Options{Host: "127.0.0.1", Ports: ports}, nil)

	accepted, err := s.Send(context.Background(), sampleTask(t))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !reflect.DeepEqual(accepted, []int{portOf(t, ok)}) {
		t.Errorf("accepted = %v", accepted)
	}

	if len(rc.bodies) != 1 {
		t.Fatalf("receiver got %d bodies", len(rc.bodies))
	}
	body := rc.bodies[0]
	if body["name"] != "P1001 A+B Problem" || body["timeLimit"] != float64(1000) || body["memoryLimit"] != float64(128) {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSendReportsEveryPort(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer rejecting.Close()

	closed := closedPort(t)
	s := New(Options{Host: "127.0.0.1", Ports: []int{closed, portOf(t, rejecting)}}, nil)

	accepted, err := s.Send(context.Background(), sampleTask(t))
	if !errors.Is(err, ErrNotDelivered) {
		t.Fatalf("expected ErrNotDelivered, got %v", err)
	}
	if accepted != nil {
		t.Errorf("accepted = %v, expected none", accepted)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should include the rejecting status: %v", err)
	}
}

func TestSendWithoutPorts(t *testing.T) {
	_, err := New(Options{}, nil).Send(context.Background(), sampleTask(t))
	if !errors.Is(err, ErrNotDelivered) {
		t.Errorf("expected ErrNotDelivered, got %v", err)
	}
}

func TestSendCancelled(t *testing.T) {
	rc := &receiver{}
	srv := httptest.NewServer(rc)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(Options{Host: "127.0.0.1", Ports: []int{portOf(t, srv)}}, nil)
	if _, err := s.Send(ctx, sampleTask(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
