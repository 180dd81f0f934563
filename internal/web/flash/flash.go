// Package flash carries one-shot notification banners across redirects using
// a short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const cookieName = "flash"

// Message is a banner shown once on the next rendered page.
type Message struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

// Normalize maps an unknown severity to "info" so templates always have a
// valid style class.
func Normalize(severity string) string {
	switch severity {
	case "success", "danger", "warning", "info":
		return severity
	default:
		return "info"
	}
}

// Icon returns the icon name for a severity.
func (m Message) Icon() string {
	switch m.Severity {
	case "success":
		return "check-circle"
	case "danger":
		return "exclamation-triangle"
	case "warning":
		return "exclamation-circle"
	default:
		return "info-circle"
	}
}

// Set stores the message for the next request. A second Set before the message
// is taken replaces the first.
func Set(w http.ResponseWriter, text, severity string) {
	data, err := json.Marshal(Message{Text: text, Severity: Normalize(severity)})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Take returns the pending message, if any, and clears it so it renders only
// once. A malformed cookie is cleared and reported as no message.
func Take(w http.ResponseWriter, r *http.Request) *Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	clear(w)

	data, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	m.Severity = Normalize(m.Severity)
	return &m
}

func clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}
