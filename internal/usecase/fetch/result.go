package fetch

import (
	"context"
	"errors"
	"net"
	"time"

	"feedhub/internal/domain/entity"
	"feedhub/internal/resilience/circuitbreaker"
)

// Reason classifies the outcome of one source fetch.
type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonTimeout         Reason = "timeout"
	ReasonHTTPStatus      Reason = "http_status"
	ReasonNetwork         Reason = "network"
	ReasonParse           Reason = "parse"
	ReasonEmptyFeed       Reason = "empty_feed"
	ReasonCircuitOpen     Reason = "circuit_open"
	ReasonInvalidURL      Reason = "invalid_url"
	ReasonUnsupportedKind Reason = "unsupported_kind"
	ReasonCanceled        Reason = "canceled"
)

// SourceResult is the explicit outcome of fetching one source. A failed
// source carries an empty Articles slice, a non-nil Err and its Reason.
type SourceResult struct {
	Source   entity.Source
	Articles []entity.Article
	Err      error
	Reason   Reason
	Cached   bool
	Duration time.Duration
}

// OK reports whether the source contributed a successful result.
func (r SourceResult) OK() bool {
	return r.Err == nil
}

// Classify maps a fetch error to its Reason.
func Classify(err error) Reason {
	if err == nil {
		return ReasonOK
	}

	var statusErr *HTTPStatusError
	var netErr net.Error
	switch {
	case circuitbreaker.IsOpenError(err):
		return ReasonCircuitOpen
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &statusErr):
		return ReasonHTTPStatus
	case errors.Is(err, ErrEmptyFeed):
		return ReasonEmptyFeed
	case errors.Is(err, ErrParse), errors.Is(err, ErrBodyTooLarge):
		return ReasonParse
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrPrivateIP):
		return ReasonInvalidURL
	case errors.Is(err, ErrUnsupportedKind):
		return ReasonUnsupportedKind
	case errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout
	default:
		return ReasonNetwork
	}
}
