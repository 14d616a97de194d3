package limit

import (
	"net/http"
	"time"

	"github.com/diamondburned/smolpost/server/http/internal/middleware"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/errors"
	"github.com/didip/tollbooth/v6/limiter"
)

// ErrorWriter writes the given error as the response.
type ErrorWriter = func(w http.ResponseWriter, r *http.Request, err error)

// RateLimit limits the number of requests per second per IP. A zero or
// negative n disables the limit.
func RateLimit(n float64, errW ErrorWriter) middleware.F {
	if n <= 0 {
		return middleware.If(false, nil)
	}

	l := tollbooth.NewLimiter(n, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	l.SetIPLookups([]string{"X-Forwarded-For", "RemoteAddr", "X-Real-IP"})

	return middleware.P(func(w http.ResponseWriter, r *http.Request) bool {
		if err := tollbooth.LimitByRequest(l, w, r); err != nil {
			errW(w, r, rateErr{err})
			return false
		}
		return true
	})
}

type rateErr struct {
	*errors.HTTPError
}

func (r rateErr) StatusCode() int {
	return r.HTTPError.StatusCode
}
