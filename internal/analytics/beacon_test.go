// ABOUTME: Tests for the HTTP beacon sink and view dedupe
// ABOUTME: Verifies fire-and-forget delivery and duplicate suppression

package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSink_DeliversViewEvent(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []ViewEvent
		done = make(chan struct{}, 1)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/widget/analytics/view", r.URL.Path)
		var ev ViewEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		done <- struct{}{}
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, nil)
	sink.Emit(ViewEvent{WidgetID: "w-1", VisitorID: "v-1", URL: "https://host.example.com"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("beacon never arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "w-1", got[0].WidgetID)
	assert.Equal(t, "v-1", got[0].VisitorID)
}

func TestHTTPSink_SuppressesDuplicateViews(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
		done  = make(chan struct{}, 4)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		done <- struct{}{}
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, nil)
	ev := ViewEvent{WidgetID: "w-1", VisitorID: "v-1", URL: "https://host.example.com"}
	sink.Emit(ev)
	sink.Emit(ev) // duplicate, suppressed without any request
	sink.Emit(ViewEvent{WidgetID: "w-1", VisitorID: "v-1", URL: "https://host.example.com/other"})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("beacons never arrived")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestHTTPSink_FailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // dead socket

	sink := NewHTTPSink(srv.URL, nil)

	// Must not panic or block; delivery failure is an acceptable loss
	sink.Emit(ViewEvent{WidgetID: "w-1", VisitorID: "v-1", URL: "https://host.example.com"})
	time.Sleep(50 * time.Millisecond)
}

func TestDedupeCache_ExpiresEntries(t *testing.T) {
	c := newDedupeCache(10 * time.Millisecond)

	assert.False(t, c.checkAndMark("k"))
	assert.True(t, c.checkAndMark("k"))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.checkAndMark("k"), "expired entry should be re-markable")
}
