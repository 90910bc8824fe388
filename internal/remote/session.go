package remote

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Session holds the cookies of a previously saved browser session
type Session struct {
	Cookies []*http.Cookie
}

type storageState struct {
	Cookies []storageCookie `json:"cookies"`
}

type storageCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// LoadSession reads a saved storage state file and keeps the unexpired cookies
// that apply to the host of baseURL.
func LoadSession(path, baseURL string, now time.Time) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionMissing, path)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	host := u.Hostname()

	session := &Session{}
	for _, c := range state.Cookies {
		if c.Name == "" || !domainMatches(host, c.Domain) {
			continue
		}

		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}

		// negative expiry marks a browser session cookie
		if c.Expires > 0 {
			expires := time.Unix(int64(c.Expires), 0)
			if !expires.After(now) {
				continue
			}
			cookie.Expires = expires
		}

		session.Cookies = append(session.Cookies, cookie)
	}

	if len(session.Cookies) == 0 {
		return nil, fmt.Errorf("%w: no valid cookies for %s in %s", ErrSessionExpired, host, path)
	}

	return session, nil
}

func domainMatches(host, domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	host = strings.ToLower(host)
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
