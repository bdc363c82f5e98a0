package httpclient

import (
	"io"
	"net/http"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/jpillora/backoff"

	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const retryClientLogTag = "retryClient"

type retryClient struct {
	delegate    Client
	maxAttempts int
	retryDelay  time.Duration
	clock       clock.Clock
	logger      boshlog.Logger
}

// NewRetryClient repeats a request while it fails at the transport level
// or the server answers 502, 503 or 504. Request bodies are replayed
// through Request.GetBody.
func NewRetryClient(
	delegate Client,
	maxAttempts int,
	retryDelay time.Duration,
	clock clock.Clock,
	logger boshlog.Logger,
) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &retryClient{
		delegate:    delegate,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		clock:       clock,
		logger:      logger,
	}
}

func (r *retryClient) Do(req *http.Request) (*http.Response, error) {
	retryBackoff := &backoff.Backoff{
		Min:    r.retryDelay,
		Max:    r.retryDelay * 10,
		Factor: 2,
	}

	for attempt := 1; ; attempt++ {
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, bosherr.WrapError(err, "Rewinding request body")
			}
			req.Body = body
		}

		resp, err := r.delegate.Do(req)
		if !isResponseRetryable(resp, err) {
			return resp, nil
		}

		if attempt >= r.maxAttempts {
			if err != nil {
				return nil, bosherr.WrapErrorf(err, "Performing request %s %s after %d attempts", req.Method, req.URL, attempt)
			}
			return resp, nil
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		delay := retryBackoff.Duration()
		r.logger.Debug(retryClientLogTag, "Retrying %s %s in %s after attempt %d", req.Method, req.URL, delay, attempt)

		timer := r.clock.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, bosherr.WrapErrorf(req.Context().Err(), "Performing request %s %s", req.Method, req.URL)
		case <-timer.C():
		}
	}
}

func isResponseRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}

	return false
}
