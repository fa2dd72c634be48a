package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// APITimeout bounds each Google Calendar request.
const APITimeout = 15 * time.Second

var _ EventStore = (*GoogleStore)(nil)

// GoogleStore stores events on a Google calendar.
type GoogleStore struct {
	srv        *gcal.Service
	calendarID string
}

// NewGoogleStore creates a store for calendarID ("primary" when empty) using
// an authenticated HTTP client.
func NewGoogleStore(ctx context.Context, httpClient *http.Client, calendarID string, opts ...option.ClientOption) (*GoogleStore, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleStore{srv: srv, calendarID: calendarID}, nil
}

func (g *GoogleStore) Insert(ctx context.Context, ev Event) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body := &gcal.Event{
		Summary: ev.Title,
		Start:   eventTime(ev.Start, ev.AllDay),
		End:     eventTime(ev.End, ev.AllDay),
	}
	if ev.TaskID != "" {
		body.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: ev.TaskID},
		}
	}

	created, err := g.srv.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", wrapError(err))
	}
	return created.Id, nil
}

func (g *GoogleStore) Find(ctx context.Context, q Query) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	call := g.srv.Events.List(g.calendarID).SingleEvents(true).ShowDeleted(false)
	if q.TaskID != "" {
		call = call.PrivateExtendedProperty(TaskIDProperty + "=" + q.TaskID)
	} else {
		call = call.
			TimeMin(q.From.Format(time.RFC3339)).
			TimeMax(q.To.Format(time.RFC3339)).
			Q(q.Title)
	}

	var out []Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			ev, err := fromGoogle(item)
			if err != nil {
				continue
			}
			if q.matches(ev) {
				out = append(out, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", wrapError(err))
	}
	return out, nil
}

// Delete removes an event. Events that are already gone are not an error.
func (g *GoogleStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	err := g.srv.Events.Delete(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			return nil
		}
		return fmt.Errorf("delete event %s: %w", id, wrapError(err))
	}
	return nil
}

func eventTime(t time.Time, allDay bool) *gcal.EventDateTime {
	if allDay {
		return &gcal.EventDateTime{Date: t.UTC().Format(time.DateOnly)}
	}
	return &gcal.EventDateTime{DateTime: t.UTC().Format(time.RFC3339)}
}

func parseEventTime(dt *gcal.EventDateTime) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, errors.New("missing event time")
	}
	if dt.Date != "" {
		t, err := time.Parse(time.DateOnly, dt.Date)
		return t, true, err
	}
	t, err := time.Parse(time.RFC3339, dt.DateTime)
	return t.UTC(), false, err
}

func fromGoogle(item *gcal.Event) (Event, error) {
	start, allDay, err := parseEventTime(item.Start)
	if err != nil {
		return Event{}, err
	}
	end, _, err := parseEventTime(item.End)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:     item.Id,
		Title:  item.Summary,
		AllDay: allDay,
		Start:  start,
		End:    end,
	}
	if item.ExtendedProperties != nil {
		ev.TaskID = item.ExtendedProperties.Private[TaskIDProperty]
	}
	return ev, nil
}

func wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, gerr.Message)
	}
	return err
}
