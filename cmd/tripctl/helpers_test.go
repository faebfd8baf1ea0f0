package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeTripWell answers TripWell paths with canned handlers and counts
// the requests it receives.
type fakeTripWell struct {
	mu       sync.Mutex
	handlers map[string]func(w http.ResponseWriter, body map[string]any)
	hits     map[string]int
}

func newFakeTripWell(t *testing.T) (*fakeTripWell, string) {
	t.Helper()
	f := &fakeTripWell{
		handlers: make(map[string]func(http.ResponseWriter, map[string]any)),
		hits:     make(map[string]int),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeTripWell) reply(path, body string) {
	f.handle(path, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeTripWell) handle(path string, h func(w http.ResponseWriter, body map[string]any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

func (f *fakeTripWell) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeTripWell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.hits[r.URL.Path]++
	h, ok := f.handlers[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, body)
}

// cityMetaOK makes every city-meta stage succeed.
func (f *fakeTripWell) cityMetaOK() {
	f.reply("/parse-city", `{"status":"success","city":{"name":"Rome"}}`)
	f.reply("/meta-creator", `{"status":"success","rawResponse":"[]"}`)
	f.reply("/meta-parse-and-save", `{"status":"success","metaAttractions":[]}`)
}

// emptyConfig writes an empty config file so tests never pick up the
// developer's own .tripctl.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, "tripctl.yaml", "{}\n")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// executeCmd runs the root command with args and captures its output.
func executeCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
