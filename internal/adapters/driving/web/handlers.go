package web

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// Form time layouts sent by datetime-local inputs.
var formTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// pageData is the model shared by every template.
type pageData struct {
	Title   string
	User    *domain.UserProfile
	// Photo is the profile photo as a data URL or static path.
	Photo   template.URL
	CSRF    string
	Notice  *domain.Notice
	Week    *domain.WeekView
	Form    *eventForm
	Message string
	Debug   string
}

// eventForm echoes submitted values back into the new-event form.
type eventForm struct {
	Subject   string
	Attendees string
	Start     string
	End       string
	Body      string
}

func (s *Server) newPageData(w http.ResponseWriter, r *http.Request, title string) *pageData {
	data := &pageData{Title: title, Notice: s.popNotice(w, r)}
	if sess := sessionFromContext(r.Context()); sess != nil {
		profile := sess.Profile
		data.User = &profile
		data.Photo = template.URL(profile.Photo) //nolint:gosec // data URL built server-side
		data.CSRF = sess.CSRFToken
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data *pageData) {
	var buf strings.Builder
	if err := s.templates.Render(&buf, page, data); err != nil {
		logger.Error("web: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "home.html", s.newPageData(w, r, "Home"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	target, err := s.signin.BeginSignIn(r.Context(), r.URL.Query().Get("return_to"))
	if err != nil {
		logger.Error("web: begin sign-in: %v", err)
		redirectToError(w, r, "Sign in error", err.Error())
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		debug := errCode
		if desc := q.Get("error_description"); desc != "" {
			debug += ": " + desc
		}
		logger.Info("web: sign-in rejected: %s", debug)
		redirectToError(w, r, "Sign in error", debug)
		return
	}

	sess, returnTo, err := s.signin.CompleteSignIn(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		logger.Warn("web: complete sign-in: %v", err)
		redirectToError(w, r, "Authentication error", err.Error())
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFromContext(r.Context()); sess != nil {
		if err := s.signin.SignOut(r.Context(), sess.ID); err != nil {
			logger.Warn("web: sign out: %v", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	week, err := s.calendar.WeekView(r.Context(), sess, s.now())
	if err != nil {
		s.handleServiceFailure(w, r, err, "Error getting calendar view", func(notice domain.Notice) {
			data := s.newPageData(w, r, "Calendar")
			data.Notice = &notice
			s.render(w, http.StatusOK, "calendar.html", data)
		})
		return
	}

	data := s.newPageData(w, r, "Calendar")
	data.Week = week
	s.render(w, http.StatusOK, "calendar.html", data)
}

func (s *Server) handleNewEventForm(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(w, r, "New event")
	data.Form = &eventForm{}
	s.render(w, http.StatusOK, "new_event.html", data)
}

func (s *Server) handleNewEventSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !validCSRF(sess, r.PostForm.Get("csrf_token")) {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	req, err := parseEventForm(r.PostForm)
	if err != nil {
		s.redirectWithNotice(w, r, "/calendar/new", domain.Notice{
			Type:    domain.NoticeError,
			Message: "Invalid event",
			Debug:   err.Error(),
		})
		return
	}

	if err := s.calendar.CreateEvent(r.Context(), sess, req); err != nil {
		s.handleServiceFailure(w, r, err, "Error creating event", func(notice domain.Notice) {
			s.redirectWithNotice(w, r, "/calendar", notice)
		})
		return
	}

	s.redirectWithNotice(w, r, "/calendar", domain.Notice{
		Type:    domain.NoticeSuccess,
		Message: "Event created",
	})
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(w, r, "Error")
	data.Message = r.URL.Query().Get("message")
	data.Debug = r.URL.Query().Get("debug")
	if data.Message == "" {
		data.Message = "An error occurred"
	}
	s.render(w, http.StatusOK, "error.html", data)
}

// handleServiceFailure maps a failed calendar call to a response. Stale
// credentials restart sign-in. Remote API errors are passed to onServiceError
// as an error notice.
func (s *Server) handleServiceFailure(
	w http.ResponseWriter, r *http.Request, err error, message string, onServiceError func(domain.Notice),
) {
	if errors.Is(err, domain.ErrAuthChallenge) {
		logger.Info("web: %s: re-authentication required", r.URL.Path)
		s.redirectToSignIn(w, r)
		return
	}

	if svcErr, ok := domain.AsServiceError(err); ok {
		logger.Warn("web: %s: %v", r.URL.Path, err)
		onServiceError(domain.Notice{
			Type:    domain.NoticeError,
			Message: message,
			Debug:   svcErr.Message,
		})
		return
	}

	logger.Error("web: %s: %v", r.URL.Path, err)
	data := s.newPageData(w, r, "Error")
	data.Message = message
	data.Debug = err.Error()
	s.render(w, http.StatusInternalServerError, "error.html", data)
}

func validCSRF(sess *domain.Session, submitted string) bool {
	if sess == nil || sess.CSRFToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(submitted)) == 1
}

func parseEventForm(form url.Values) (*domain.NewEventRequest, error) {
	start, err := parseFormTime(form.Get("start"))
	if err != nil {
		return nil, err
	}
	end, err := parseFormTime(form.Get("end"))
	if err != nil {
		return nil, err
	}
	return &domain.NewEventRequest{
		Subject:   form.Get("subject"),
		Attendees: form.Get("attendees"),
		Start:     start,
		End:       end,
		Body:      form.Get("body"),
	}, nil
}

func parseFormTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range formTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date-time %q", domain.ErrInvalidInput, value)
}

func redirectToError(w http.ResponseWriter, r *http.Request, message, debug string) {
	q := url.Values{}
	q.Set("message", message)
	q.Set("debug", debug)
	http.Redirect(w, r, "/home/error?"+q.Encode(), http.StatusFound)
}
