package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/latencylab/stride/internal/harness"
)

// latencyMessage is the fixed record written by the logline operation.
var latencyMessage = strings.Repeat("x", 64)

// buildOperation maps an operation spec to an Op and a cleanup func.
//
// Specs:
//
//	noop             do nothing (measures pure harness overhead)
//	sleep:<duration> sleep for a fixed duration, e.g. sleep:50us
//	logline[:path]   append a fixed 64-byte record through a buffered
//	                 writer; without a path the record is discarded
//	httpget:<url>    GET the URL and drain the body
func buildOperation(spec string) (harness.Op, func() error, error) {
	noClose := func() error { return nil }

	name, arg, _ := strings.Cut(spec, ":")
	switch name {
	case "noop":
		if arg != "" {
			return nil, nil, fmt.Errorf("operation noop takes no argument, got %q", arg)
		}
		return func() error { return nil }, noClose, nil

	case "sleep":
		d, err := time.ParseDuration(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("operation sleep: invalid duration %q: %w", arg, err)
		}
		if d <= 0 {
			return nil, nil, fmt.Errorf("operation sleep: duration must be > 0, got %v", d)
		}
		return func() error {
			time.Sleep(d)
			return nil
		}, noClose, nil

	case "logline":
		return buildLoglineOperation(arg)

	case "httpget":
		return buildHTTPGetOperation(arg)

	default:
		return nil, nil, fmt.Errorf("unknown operation %q (want noop, sleep:<duration>, logline[:path] or httpget:<url>)", spec)
	}
}

// buildLoglineOperation writes a fixed record per call through a shared
// buffered writer. Workers serialize on a mutex, the same contention a
// real logging front end would see.
func buildLoglineOperation(path string) (harness.Op, func() error, error) {
	var sink io.Writer = io.Discard
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("operation logline: %w", err)
		}
		file = f
		sink = f
	}

	var mu sync.Mutex
	w := bufio.NewWriter(sink)

	op := func() error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintln(w, latencyMessage)
		return err
	}

	// The command both defers cleanup and calls it before reporting, so
	// it must be safe to run twice.
	var once sync.Once
	var closeErr error
	cleanup := func() error {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			closeErr = w.Flush()
			if file != nil {
				if err := file.Close(); closeErr == nil {
					closeErr = err
				}
			}
		})
		return closeErr
	}
	return op, cleanup, nil
}

// buildHTTPGetOperation issues a GET per call against a fixed URL. The
// transport keeps connections alive so every sample after the first
// measures the request, not a fresh handshake.
func buildHTTPGetOperation(raw string) (harness.Op, func() error, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("operation httpget: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, fmt.Errorf("operation httpget: URL must be http or https, got %q", raw)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 256,
		},
	}

	op := func() error {
		resp, err := client.Get(raw)
		if err != nil {
			return err
		}
		_, err = io.Copy(io.Discard, resp.Body)
		if cerr := resp.Body.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("httpget: server returned %s", resp.Status)
		}
		return nil
	}
	cleanup := func() error {
		client.CloseIdleConnections()
		return nil
	}
	return op, cleanup, nil
}
