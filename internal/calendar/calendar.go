// Package calendar exports booked sessions to Google Calendar.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"tutorconnect/internal/scheduling"
)

var ErrNotConfigured = errors.New("google calendar not configured")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Exporter struct {
	oauth *oauth2.Config
}

// New returns nil when any OAuth2 setting is missing; callers treat a nil
// Exporter as calendar export being switched off.
func New(cfg Config) *Exporter {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil
	}
	return &Exporter{oauth: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}}
}

func (e *Exporter) AuthURL(state string) (string, error) {
	if e == nil {
		return "", ErrNotConfigured
	}
	return e.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (e *Exporter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if e == nil {
		return nil, ErrNotConfigured
	}
	tok, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// ParseToken decodes a token in the JSON form returned by the OAuth2 callback.
func ParseToken(raw string) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("token has no access_token")
	}
	return &tok, nil
}

// ExportSession inserts sess into calendarID and returns the created event.
func (e *Exporter) ExportSession(ctx context.Context, tok *oauth2.Token, calendarID string, sess scheduling.Session) (*gcal.Event, error) {
	if e == nil {
		return nil, ErrNotConfigured
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(e.oauth.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	created, err := srv.Events.Insert(calendarID, EventForSession(sess)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

// EventForSession builds the calendar event for a session. Times are sent in UTC.
func EventForSession(sess scheduling.Session) *gcal.Event {
	desc := fmt.Sprintf("TutorConnect session %s\nStudent: %s\nTutor: %s",
		sess.ID, sess.StudentID, sess.TutorID)
	if sess.SubjectID != "" {
		desc += "\nSubject: " + sess.SubjectID
	}
	return &gcal.Event{
		Summary:     "Tutoring session",
		Description: desc,
		Start: &gcal.EventDateTime{
			DateTime: sess.ScheduledStart.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: sess.ScheduledEnd.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{"tutorconnect_session_id": sess.ID},
		},
	}
}
