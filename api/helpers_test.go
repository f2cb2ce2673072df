package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/safa0/radiantctl/api"
	"github.com/safa0/radiantctl/display"
	"github.com/safa0/radiantctl/logging"
	"github.com/safa0/radiantctl/preset"
	"github.com/safa0/radiantctl/reconcile"
	"github.com/safa0/radiantctl/storage"
)

type testEnv struct {
	srv      *httptest.Server
	kv       *storage.MemoryKV
	store    *preset.Store
	registry *display.Registry
	cache    *display.Cache
	rec      *reconcile.Reconciler
	bridge   *display.FakeBridge
	hub      *api.Hub
	token    uint64

	stopHub func()
}

func newTestServer(t *testing.T, displays ...string) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	kv := storage.NewMemoryKV()
	store, err := preset.NewStore(ctx, kv, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	env := &testEnv{
		kv:       kv,
		store:    store,
		registry: display.NewRegistry(),
		cache:    display.NewCache(),
		bridge:   display.NewFakeBridge(),
		hub:      api.NewHub(nil),
	}
	dispatcher := display.NewDispatcher(env.bridge, 64, nil)
	go dispatcher.Run(ctx)
	hubCtx, hubCancel := context.WithCancel(ctx)
	hubDone := make(chan struct{})
	go func() {
		env.hub.Run(hubCtx)
		close(hubDone)
	}()
	env.stopHub = func() {
		hubCancel()
		<-hubDone
	}

	env.rec = reconcile.New(store, env.cache, dispatcher, nil)
	for _, id := range displays {
		env.registry.Add(display.Info{ID: id, Model: "U2720Q"})
	}

	env.srv = httptest.NewServer(api.RegisterRoutes(api.Deps{
		Registry:   env.registry,
		Cache:      env.cache,
		Store:      store,
		Reconciler: env.rec,
		Hub:        env.hub,
		Logger:     logging.Discard(),
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) feed(id string, values preset.Values) {
	e.token++
	e.cache.Apply(id, display.State{Values: values, Token: e.token, Ready: true})
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}
