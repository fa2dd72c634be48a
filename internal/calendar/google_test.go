package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendarAPI serves the handful of Events endpoints GoogleStore uses.
type fakeCalendarAPI struct {
	mu      sync.Mutex
	events  map[string]*gcal.Event
	nextID  int
	status  int // when non-zero every request fails with this code
	queries []string
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"code":` + strconv.Itoa(f.status) + `,"message":"denied"}}`))
		return
	}

	const prefix = "/calendars/primary/events"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case r.Method == http.MethodPost && id == "":
		var ev gcal.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		ev.Id = "ev" + strconv.Itoa(f.nextID)
		f.events[ev.Id] = &ev
		_ = json.NewEncoder(w).Encode(ev)

	case r.Method == http.MethodGet && id == "":
		f.queries = append(f.queries, r.URL.RawQuery)
		want := r.URL.Query().Get("privateExtendedProperty")
		q := r.URL.Query().Get("q")
		var items []*gcal.Event
		for _, ev := range f.events {
			switch {
			case want != "":
				if ev.ExtendedProperties != nil && TaskIDProperty+"="+ev.ExtendedProperties.Private[TaskIDProperty] == want {
					items = append(items, ev)
				}
			case strings.Contains(ev.Summary, q):
				items = append(items, ev)
			}
		}
		_ = json.NewEncoder(w).Encode(gcal.Events{Items: items})

	case r.Method == http.MethodDelete && id != "":
		if _, ok := f.events[id]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (f *fakeCalendarAPI) event(id string) *gcal.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id]
}

func (f *fakeCalendarAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeCalendarAPI) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeCalendarAPI) failWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func newTestGoogleStore(t *testing.T) (*GoogleStore, *fakeCalendarAPI) {
	t.Helper()
	api := &fakeCalendarAPI{events: map[string]*gcal.Event{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := NewGoogleStore(context.Background(), srv.Client(), "", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return store, api
}

func TestGoogleStore(t *testing.T) {
	ctx := context.Background()
	start, end := DayRange(due)

	t.Run("insert writes an all-day event with the task property", func(t *testing.T) {
		store, api := newTestGoogleStore(t)

		id, err := store.Insert(ctx, Event{Title: "⭐ Dentist", AllDay: true, Start: start, End: end, TaskID: "4"})
		require.NoError(t, err)

		ev := api.event(id)
		require.NotNil(t, ev)
		assert.Equal(t, "⭐ Dentist", ev.Summary)
		assert.Equal(t, "2025-06-10", ev.Start.Date)
		assert.Equal(t, "2025-06-11", ev.End.Date)
		assert.Equal(t, "4", ev.ExtendedProperties.Private[TaskIDProperty])
	})

	t.Run("find by task id", func(t *testing.T) {
		store, _ := newTestGoogleStore(t)
		_, err := store.Insert(ctx, Event{Title: "A", AllDay: true, Start: start, End: end, TaskID: "1"})
		require.NoError(t, err)
		_, err = store.Insert(ctx, Event{Title: "B", AllDay: true, Start: start, End: end, TaskID: "2"})
		require.NoError(t, err)

		found, err := store.Find(ctx, Query{TaskID: "2"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "B", found[0].Title)
		assert.True(t, found[0].AllDay)
		assert.Equal(t, start, found[0].Start)
	})

	t.Run("find by title requires an exact match", func(t *testing.T) {
		store, api := newTestGoogleStore(t)
		_, err := store.Insert(ctx, Event{Title: "Gym", AllDay: true, Start: start, End: end})
		require.NoError(t, err)
		_, err = store.Insert(ctx, Event{Title: "Gym class", AllDay: true, Start: start, End: end})
		require.NoError(t, err)

		found, err := store.Find(ctx, Query{Title: "Gym", From: start, To: end})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gym"}, titles(found))
		assert.Contains(t, api.lastQuery(), "timeMin=")
	})

	t.Run("delete tolerates missing events", func(t *testing.T) {
		store, api := newTestGoogleStore(t)
		id, err := store.Insert(ctx, Event{Title: "Gone", AllDay: true, Start: start, End: end})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id))
		assert.Zero(t, api.count())
		require.NoError(t, store.Delete(ctx, id))
	})

	t.Run("auth failures map to permission denied", func(t *testing.T) {
		store, api := newTestGoogleStore(t)
		api.failWith(http.StatusForbidden)

		_, err := store.Insert(ctx, Event{Title: "X", AllDay: true, Start: start, End: end})
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = store.Find(ctx, Query{TaskID: "1"})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("timed events round trip", func(t *testing.T) {
		store, _ := newTestGoogleStore(t)
		at := time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
		_, err := store.Insert(ctx, Event{Title: "Standup", Start: at, End: at.Add(15 * time.Minute), TaskID: "3"})
		require.NoError(t, err)

		found, err := store.Find(ctx, Query{TaskID: "3"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.False(t, found[0].AllDay)
		assert.Equal(t, at, found[0].Start)
	})
}

func TestExtractCode(t *testing.T) {
	cases := map[string]string{
		"4/abc\n": "4/abc",
		"http://localhost/?state=state&code=4%2Fxyz&scope=x": "4/xyz",
		"  ": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractCode(in), in)
	}
}
