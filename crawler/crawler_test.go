package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchDocRequestsIndexPage(t *testing.T) {
	var gotQuery, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Client: server.Client()})
	doc, err := c.FetchDoc(context.Background(), "2-1-1")
	if err != nil {
		t.Fatalf("FetchDoc() error = %v", err)
	}

	if gotQuery != "index=2-1-1" {
		t.Fatalf("query = %q, want index=2-1-1", gotQuery)
	}
	if gotReferer != server.URL+"/" {
		t.Fatalf("referer = %q, want %s/", gotReferer, server.URL)
	}
	if doc.Title == "" || doc.Empty {
		t.Fatalf("doc = %+v, want parsed content", doc)
	}
	if doc.FetchedAt.IsZero() {
		t.Fatal("FetchedAt is zero")
	}
}

func TestFetchDocRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Client: server.Client()})
	if _, err := c.FetchDoc(context.Background(), "2-1-1"); err == nil {
		t.Fatal("FetchDoc() error = nil, want status error")
	}
}

func TestCrawlStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(Config{
		BaseURL:  server.URL,
		Client:   server.Client(),
		MinDelay: time.Hour,
		MaxDelay: time.Hour,
	})

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	docs, err := c.Crawl(ctx)
	if err != context.Canceled {
		t.Fatalf("Crawl() error = %v, want context.Canceled", err)
	}
	// One page fetched before the first hour-long pause.
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	doc := EndpointDoc{
		Index:    "2-1-1",
		Title:    "Stock > Daily Bars",
		Endpoint: "stock/{exchange_code}/daily",
		Params: []ParamDoc{
			{Name: "exchange_code", Type: "string", Required: true, Description: "Exchange"},
		},
		FetchedAt: time.Now().UTC(),
	}
	if err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, found, err := store.Get(ctx, "2-1-1")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v, %v", got, found, err)
	}
	if got.Title != doc.Title || got.Endpoint != doc.Endpoint {
		t.Fatalf("Get() = %+v, want %+v", got, doc)
	}
	if len(got.Params) != 1 || got.Params[0].Name != "exchange_code" {
		t.Fatalf("params = %+v, want exchange_code", got.Params)
	}

	// Upsert replaces.
	doc.Title = "Stock > Daily Bars (adjusted)"
	if err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	got, _, err = store.Get(ctx, "2-1-1")
	if err != nil || got.Title != doc.Title {
		t.Fatalf("Get() after upsert = %+v, %v", got, err)
	}

	if _, found, err := store.Get(ctx, "9-9-9"); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}
}

func TestSQLiteStoreListAndDeleteEmpty(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docs := []EndpointDoc{
		{Index: "2-1-2", Title: "Second"},
		{Index: "2-1-1", Title: "First"},
		{Index: "2-1-3", Empty: true},
	}
	for _, doc := range docs {
		if err := store.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert(%s) error = %v", doc.Index, err)
		}
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("List() = %d docs, want 3", len(listed))
	}
	// Index order.
	if listed[0].Index != "2-1-1" || listed[2].Index != "2-1-3" {
		t.Fatalf("List() order = %s..%s, want 2-1-1..2-1-3", listed[0].Index, listed[2].Index)
	}

	dropped, err := store.DeleteEmpty(ctx)
	if err != nil {
		t.Fatalf("DeleteEmpty() error = %v", err)
	}
	if dropped != 1 {
		t.Fatalf("DeleteEmpty() = %d, want 1", dropped)
	}
	listed, err = store.List(ctx)
	if err != nil || len(listed) != 2 {
		t.Fatalf("List() after cleanup = %d docs, %v; want 2", len(listed), err)
	}
}

func TestSQLiteStoreRequiresDSNAndIndex(t *testing.T) {
	if _, err := NewSQLiteStore("  "); err == nil {
		t.Fatal("NewSQLiteStore(blank) error = nil")
	}

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()
	if err := store.Upsert(context.Background(), EndpointDoc{}); err == nil {
		t.Fatal("Upsert() without index, error = nil")
	}
}
