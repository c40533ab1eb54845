// Package transport hands finished tasks to receiving tools (editor plugins,
// test runners) listening on localhost.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"companion/task"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotDelivered is returned when no receiving tool accepted the task.
var ErrNotDelivered = errors.New("no receiving tool accepted the task")

// Options configures a Sender.
type Options struct {
	Host    string // defaults to localhost
	Ports   []int
	Timeout time.Duration // per port, defaults to 2s
}

// Sender posts task JSON to every configured port.
type Sender struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
}

// New creates a Sender.
func New(o Options, logger *zap.Logger) *Sender {
	if o.Host == "" {
		o.Host = "localhost"
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		opts:   o,
		client: &http.Client{Timeout: o.Timeout},
		logger: logger,
	}
}

// Send posts t to all ports at once. It returns the ports that answered 2xx,
// in configuration order, and succeeds when there is at least one. Otherwise
// the error wraps ErrNotDelivered together with each port's failure.
func (s *Sender) Send(ctx context.Context, t *task.Task) ([]int, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding task: %w", err)
	}
	if len(s.opts.Ports) == 0 {
		return nil, fmt.Errorf("%w: no ports configured", ErrNotDelivered)
	}

	errs := make([]error, len(s.opts.Ports))
	var wg sync.WaitGroup
	for i, port := range s.opts.Ports {
		i, port := i, port
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.post(ctx, port, body)
		}()
	}
	wg.Wait()

	var accepted []int
	var failures error
	for i, port := range s.opts.Ports {
		if errs[i] != nil {
			failures = multierr.Append(failures, errs[i])
			s.logger.Debug("receiver did not accept task", zap.Int("port", port), zap.Error(errs[i]))
			continue
		}
		accepted = append(accepted, port)
	}

	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNotDelivered, failures)
	}
	s.logger.Info("task sent",
		zap.String("name", t.Name()),
		zap.Ints("ports", accepted))
	return accepted, nil
}

func (s *Sender) post(ctx context.Context, port int, body []byte) error {
	url := "http://" + net.JoinHostPort(s.opts.Host, strconv.Itoa(port)) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("port %d: %w", port, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("port %d: %w", port, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("port %d: %s", port, resp.Status)
	}
	return nil
}
