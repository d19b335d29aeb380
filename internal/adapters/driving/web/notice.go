package web

import (
	"encoding/base64"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

const (
	noticeCookie = "graphcal_notice"
	noticeMaxAge = 60
	// maxNoticeDebug keeps the cookie well under browser size limits.
	maxNoticeDebug = 1024
)

// setNotice stores a notice to show on the next rendered page.
func (s *Server) setNotice(w http.ResponseWriter, notice domain.Notice) {
	if len(notice.Debug) > maxNoticeDebug {
		notice.Debug = notice.Debug[:maxNoticeDebug]
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   noticeMaxAge,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popNotice returns the pending notice, if any, and clears it.
func (s *Server) popNotice(w http.ResponseWriter, r *http.Request) *domain.Notice {
	c, err := r.Cookie(noticeCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notice domain.Notice
	if err := json.Unmarshal(data, &notice); err != nil || notice.Message == "" {
		return nil
	}
	return &notice
}

// redirectWithNotice sets a notice and redirects.
func (s *Server) redirectWithNotice(w http.ResponseWriter, r *http.Request, to string, notice domain.Notice) {
	s.setNotice(w, notice)
	http.Redirect(w, r, to, http.StatusFound)
}
