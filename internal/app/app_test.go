package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/nearby/internal/config"
	"github.com/alex-user-go/nearby/internal/present"
	"github.com/alex-user-go/nearby/internal/search/ratelimit"
)

const lisbonBody = `{"success":true,"message":[["Hotel A","38.71","-9.14","100"],["Hotel B","38.72","-9.12","80"]]}`

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotels.json")
	require.NoError(t, os.WriteFile(path, []byte(lisbonBody), 0o600))
	return "file://" + path
}

func testConfig(t *testing.T, location string) *config.Config {
	t.Helper()
	v, err := config.NewViper("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	cfg.Sources = map[string]string{"local": location}
	cfg.DefaultSource = "local"
	cfg.S3.Endpoint = ""
	return cfg
}

func TestApp_Router(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(testConfig(t, writeSource(t)), logger)
	require.NoError(t, err)

	limiter := ratelimit.New(10, time.Minute)
	defer limiter.Close()
	srv := httptest.NewServer(a.Router(limiter))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?lat=38.7071&lon=-9.13549&orderby=price_per_night&json=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, present.ContentTypeJSON, resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var page present.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Hotel B", page.Data[0].Name)

	for _, path := range []string{"/healthz", "/metrics", "/sources"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestNew_InvalidCurrency(t *testing.T) {
	cfg := testConfig(t, writeSource(t))
	cfg.Currency.Code = "EURO"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestNewFetcher_S3(t *testing.T) {
	cfg := testConfig(t, writeSource(t))
	cfg.S3.Endpoint = "localhost:9000"
	cfg.S3.UseSSL = false

	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_Search(t *testing.T) {
	t.Setenv("NEARBY_LOG_LEVEL", "error")
	location := writeSource(t)

	out, err := runCLI(t, "search", "--lat", "38.7071", "--lon", "-9.13549",
		"--order-by", "price_per_night", "--add-source", "local="+location, "--source", "local")
	require.NoError(t, err)
	assert.Equal(t, " • Hotel B, 1.97 KM, 80,00 EUR • Hotel A, 0.51 KM, 100,00 EUR\n", out)
}

func TestCLI_SearchJSON(t *testing.T) {
	t.Setenv("NEARBY_LOG_LEVEL", "error")
	location := writeSource(t)

	out, err := runCLI(t, "search", "--lat", "38.7071", "--lon", "-9.13549", "--json",
		"--limit", "1", "--add-source", "local="+location, "--source", "local")
	require.NoError(t, err)

	var page present.Response
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Hotel A", page.Data[0].Name)
}

func TestCLI_SearchValidation(t *testing.T) {
	t.Setenv("NEARBY_LOG_LEVEL", "error")

	_, err := runCLI(t, "search", "--lon", "-9.13549")
	require.Error(t, err)
	assert.Equal(t, "Latitude is required", err.Error())

	_, err = runCLI(t, "search", "--lat", "1", "--lon", "2", "--add-source", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want NAME=URL")
}

func TestCLI_Sources(t *testing.T) {
	t.Setenv("NEARBY_LOG_LEVEL", "error")

	out, err := runCLI(t, "sources", "--add-source", "extra=https://example.com/extra.json")
	require.NoError(t, err)
	assert.Contains(t, out, "source_1")
	assert.Contains(t, out, "extra")
	assert.Contains(t, out, "https://example.com/extra.json")
}

func TestParseSourceFlags(t *testing.T) {
	got, err := parseSourceFlags([]string{"a=https://a.example.com", " b = file:///tmp/b.json "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a": "https://a.example.com",
		"b": "file:///tmp/b.json",
	}, got)

	got, err = parseSourceFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
