package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const feedBody = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

func TestFetchOneUsesConditionalRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "a", URL: srv.URL + "/a.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Equal(t, feedBody, string(first.Body))

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, feedBody, string(second.Body))
	require.EqualValues(t, 2, hits.Load())
}

func TestFetchOneFallsBackToCache(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "a", URL: srv.URL + "/a.ics"}

	_, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, feedBody, string(res.Body))

	// A feed that never succeeded has nothing to fall back to.
	_, err = f.FetchOne(context.Background(), Source{ID: "b", URL: srv.URL + "/b.ics"})
	require.Error(t, err)
}

func TestFetchAllKeepsOrderAndReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	sources := []Source{
		{ID: "one", URL: srv.URL + "/one.ics"},
		{ID: "broken", URL: srv.URL + "/broken.ics"},
		{ID: "two", URL: srv.URL + "/two.ics"},
		{ID: "empty"},
		{ID: "three", URL: srv.URL + "/three.ics"},
	}

	results, errs := NewFetcher(t.TempDir()).FetchAll(context.Background(), sources)
	require.Len(t, errs, 2)
	require.Len(t, results, 3)
	for i, id := range []string{"one", "two", "three"} {
		require.Equal(t, id, results[i].Source.ID)
		require.Equal(t, "/"+id+".ics", string(results[i].Body))
	}
}
