package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/engine"
	"github.com/andreluis2005/cognira/internal/infra/memory"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *app.PracticeService {
	t.Helper()
	repo := memory.NewCatalogRepository(catalog.NewEmbeddedLoader(), 0)
	return app.NewPracticeService(repo, catalog.DefaultCertification, discardLogger(),
		app.WithClock(func() time.Time { return testNow }),
		app.WithEngineOptions(engine.WithIDGenerator(func() string { return "sess-test" })),
	)
}

func newTestServer(t *testing.T, logger *slog.Logger) *httptest.Server {
	t.Helper()
	service := newTestService(t)
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandler(service, logger), NewWSHandler(service, logger))
	server := httptest.NewServer(Logging(logger)(CORS(mux)))
	t.Cleanup(server.Close)
	return server
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func embeddedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	ds, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("embedded dataset: %v", err)
	}
	cat, err := catalog.New(ds)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}
