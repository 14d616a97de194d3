// Package client is an HTTP client for a smolpost server.
package client

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/diamondburned/smolpost/smolpost"
	"github.com/pkg/errors"
)

// StatusCoder is an interface that ErrUnexpectedStatusCode implements.
type StatusCoder interface {
	StatusCode() int
}

// ErrGetStatusCode gets the status code from error, or returns orCode if it
// can't get any.
func ErrGetStatusCode(err error, orCode int) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return orCode
}

type ErrUnexpectedStatusCode struct {
	Code   int
	Body   string
	ErrMsg string
}

func (err ErrUnexpectedStatusCode) StatusCode() int {
	return err.Code
}

func (err ErrUnexpectedStatusCode) Error() string {
	var errstr = fmt.Sprintf("unexpected status code %d", err.Code)
	switch {
	case err.ErrMsg != "":
		errstr += ": " + err.ErrMsg
	case err.Body != "":
		errstr += ", body: " + err.Body
	}

	return errstr
}

// Client contains a single stateful HTTP client. Redirects are never followed,
// since the server answers form submissions with one.
type Client struct {
	http.Client
	host  *url.URL
	agent string
}

// NewClient makes a new client for the given base URL, such as
// "http://localhost".
func NewClient(host string) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse host URL")
	}

	if u.Scheme == "" {
		u.Scheme = "http"
	}

	var client = &Client{
		Client: http.Client{
			Timeout: 10 * time.Second,
			Jar:     NewJar(),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		host: u,
	}

	return client, nil
}

func (c *Client) SetUserAgent(userAgent string) {
	c.agent = userAgent
}

func (c *Client) Cookies() []*http.Cookie {
	return c.Jar.Cookies(c.host)
}

func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.Jar.SetCookies(c.host, cookies)
}

// Host returns the stringified URL.
func (c *Client) Host() string {
	return c.host.String()
}

// Endpoint returns the full URL of the given path.
func (c *Client) Endpoint(path string) string {
	return c.Host() + path
}

// Do sends the request. Responses outside 2xx and 3xx are returned as
// ErrUnexpectedStatusCode.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	// Override the UserAgent if we have one.
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	r, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if r.StatusCode < 200 || r.StatusCode > 399 {
		// Start reading the body for the error.
		defer r.Body.Close()

		var unexp = ErrUnexpectedStatusCode{Code: r.StatusCode}

		b, err := ioutil.ReadAll(r.Body)
		if err == nil {
			var errResp smolpost.ErrResponse
			if json.Unmarshal(b, &errResp); errResp.Error != "" {
				unexp.ErrMsg = errResp.Error
			} else {
				if len(b) > 100 {
					unexp.Body = string(b[:97]) + "..."
				} else {
					unexp.Body = string(b)
				}
			}
		}

		return nil, unexp
	}

	return r, nil
}

func (c *Client) DoJSON(req *http.Request, resp interface{}) error {
	q, err := c.Do(req)
	if err != nil {
		return err
	}
	defer q.Body.Close()

	if resp != nil {
		return json.NewDecoder(q.Body).Decode(resp)
	}

	return nil
}

func (c *Client) Get(path string, resp interface{}, v url.Values) error {
	var url = c.Endpoint(path)
	if len(v) > 0 {
		url += "?" + v.Encode()
	}

	r, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	return c.DoJSON(r, resp)
}
