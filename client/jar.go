package client

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Jar implements a single-domain cookiejar. Cookies are merged by name, and
// expired cookies are removed.
type Jar struct {
	mutex sync.Mutex
	host  string
	cook  map[string]*http.Cookie
}

// NewJar makes a new cookiejar.
func NewJar() *Jar {
	return &Jar{
		cook: map[string]*http.Cookie{},
	}
}

// SetCookies stores the cookies for the given URL. Cookies for another host
// replace all existing ones.
func (jar *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	jar.mutex.Lock()
	defer jar.mutex.Unlock()

	if jar.host != u.Host {
		jar.host = u.Host
		jar.cook = map[string]*http.Cookie{}
	}

	now := time.Now()

	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(jar.cook, c.Name)
			continue
		}
		jar.cook[c.Name] = c
	}
}

// Cookies returns the cookies to send in a request for the given URL.
func (jar *Jar) Cookies(u *url.URL) []*http.Cookie {
	jar.mutex.Lock()
	defer jar.mutex.Unlock()

	if u.Host != jar.host {
		return nil
	}

	var cookies = make([]*http.Cookie, 0, len(jar.cook))
	for _, c := range jar.cook {
		cookies = append(cookies, c)
	}

	return cookies
}
