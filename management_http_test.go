package cacheservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/longbridgeapp/assert"
	"github.com/prometheus/client_golang/prometheus"
)

func startManagement(t *testing.T, registry *Registry, opts ...ManagementHTTPOption) (string, *http.Client) {
	t.Helper()

	srv := NewManagementHTTPServer("127.0.0.1:0", opts...)
	assert.Nil(t, srv.Start(context.Background(), registry))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
	})

	// wait briefly for listener
	time.Sleep(30 * time.Millisecond)

	addr := srv.Address()
	assert.True(t, addr != "")

	return "http://" + addr, &http.Client{Timeout: 2 * time.Second}
}

func doRequest(t *testing.T, client *http.Client, method, url string, out any) int {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	assert.Nil(t, err)

	resp, err := client.Do(req)
	assert.Nil(t, err)

	defer resp.Body.Close() //nolint:errcheck

	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func TestManagementHTTP_Endpoints(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	shop, err := AnnotatedWith("shop", "shop")
	assert.Nil(t, err)
	assert.Nil(t, registry.Install(ctx, installSource(t), NewFactory(), DefaultModule(), shop))

	defer func() { _ = registry.Shutdown(ctx) }()

	base, client := startManagement(t, registry)

	// /health
	assert.Equal(t, http.StatusOK, doRequest(t, client, http.MethodGet, base+"/health", nil))

	// /caches
	var infos []cacheInfo

	assert.Equal(t, http.StatusOK, doRequest(t, client, http.MethodGet, base+"/caches", &infos))
	assert.Equal(t, 2, len(infos))
	assert.Equal(t, "_default", infos[0].Token)
	assert.Equal(t, "default-region", infos[0].Name)
	assert.Equal(t, "INITIALIZED", infos[0].State)
	assert.True(t, infos[0].Eternal)
	assert.Equal(t, "shop", infos[1].Token)
	assert.Equal(t, 1, infos[1].Engine.MaxEntries)

	// /caches/:token/max-age
	var info cacheInfo

	assert.Equal(t, http.StatusOK, doRequest(t, client, http.MethodPut, base+"/caches/shop/max-age?seconds=90", &info))
	assert.Equal(t, int64(90), info.MaxAgeSeconds)
	assert.False(t, info.Eternal)

	svc, err := registry.Named("shop")
	assert.Nil(t, err)
	assert.Equal(t, 90*time.Second, svc.MaxAge())

	// /caches/:token/clear
	assert.Nil(t, svc.Store(ctx, "k", "v"))
	assert.Equal(t, http.StatusOK, doRequest(t, client, http.MethodPost, base+"/caches/shop/clear", nil))

	_, ok, err := svc.Read(ctx, "k")
	assert.Nil(t, err)
	assert.False(t, ok)

	// error mapping
	var body map[string]any

	assert.Equal(t, http.StatusNotFound, doRequest(t, client, http.MethodGet, base+"/caches/nope", &body))
	assert.True(t, body["error"] != nil)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, client, http.MethodPut, base+"/caches/shop/max-age?seconds=abc", nil))
	assert.Equal(t, http.StatusBadRequest, doRequest(t, client, http.MethodPut, base+"/caches/shop/max-age?seconds=-1", nil))
	assert.Equal(t, http.StatusBadRequest, doRequest(t, client, http.MethodPut, base+"/caches/shop/max-age?seconds=9223372036854775807", nil))
	assert.Equal(t, 90*time.Second, svc.MaxAge())

	assert.Nil(t, svc.Close(ctx))
	assert.Equal(t, http.StatusConflict, doRequest(t, client, http.MethodPost, base+"/caches/shop/clear", nil))
}

func TestManagementHTTP_Auth(t *testing.T) {
	registry := NewRegistry()

	base, client := startManagement(t, registry, WithMgmtAuth(func(fiberCtx fiber.Ctx) error {
		if fiberCtx.Get("X-Token") != "secret" {
			return fiber.ErrUnauthorized
		}

		return nil
	}))

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, client, http.MethodGet, base+"/health", nil))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, base+"/caches", nil)
	assert.Nil(t, err)
	req.Header.Set("X-Token", "secret")

	resp, err := client.Do(req)
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestManagementHTTP_StartRequiresRegistry(t *testing.T) {
	srv := NewManagementHTTPServer("127.0.0.1:0")
	assert.True(t, srv.Start(context.Background(), nil) != nil)
	assert.Equal(t, "", srv.Address())
	assert.Nil(t, srv.Shutdown(context.Background()))
}

func TestManagementHTTP_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	calls := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_calls_total", Help: "calls"})
	reg.MustRegister(calls)
	calls.Add(3)

	base, client := startManagement(t, NewRegistry(), WithMgmtMetrics(reg))

	resp, err := client.Get(base + "/metrics")
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	_ = resp.Body.Close()

	assert.True(t, strings.Contains(string(body), "test_calls_total 3"))
}
