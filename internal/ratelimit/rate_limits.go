package ratelimit

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultRetryAfter = 1 * time.Minute

// FromResponse returns a rate limit map from an HTTP response.
func FromResponse(r *http.Response) Map {
	return fromResponse(r, time.Now())
}

func fromResponse(r *http.Response, now time.Time) Map {
	s := r.Header.Get("X-Sentry-Rate-Limits")
	if s != "" {
		return parseXSentryRateLimits(s, now)
	}
	if r.StatusCode == http.StatusTooManyRequests {
		s := r.Header.Get("Retry-After")
		deadline, _ := parseRetryAfter(s, now)
		return Map{CategoryAll: Deadline(deadline)}
	}
	return Map{}
}

// parseXSentryRateLimits returns a rate limit map by parsing an input string
// in the format of the X-Sentry-Rate-Limits header.
//
// Example:
//
//	X-Sentry-Rate-Limits: 60:transaction, 2700:error;transaction
//
// would rate limit transactions for the next 60 seconds and both errors and
// transactions for the next 2700 seconds.
//
// Limits for unknown categories are ignored.
func parseXSentryRateLimits(s string, now time.Time) Map {
	m := make(Map, len(knownCategories))
	for _, limit := range strings.Split(s, ",") {
		limit = strings.TrimSpace(limit)
		if limit == "" {
			continue
		}
		components := strings.Split(limit, ":")
		if len(components) == 0 {
			continue
		}
		retryAfter, err := parseDelaySeconds(strings.TrimSpace(components[0]))
		if err != nil {
			continue
		}
		categories := ""
		if len(components) > 1 {
			categories = components[1]
		}
		for _, category := range strings.Split(categories, ";") {
			c := Category(strings.ToLower(strings.TrimSpace(category)))
			if _, known := knownCategories[c]; !known {
				continue
			}
			d := Deadline(now.Add(retryAfter))
			if d.After(m[c]) {
				m[c] = d
			}
		}
	}
	return m
}

// parseRetryAfter parses a string in the format of the Retry-After header,
// either a delay in seconds or an HTTP date, and returns the deadline it
// denotes. On invalid input the deadline falls back to a fixed delay from
// now, with a non-nil error.
func parseRetryAfter(s string, now time.Time) (time.Time, error) {
	if delay, err := parseDelaySeconds(s); err == nil {
		return now.Add(delay), nil
	}
	if date, err := time.Parse(time.RFC1123, s); err == nil {
		return date, nil
	}
	return now.Add(defaultRetryAfter), errors.New("invalid Retry-After value")
}

func parseDelaySeconds(s string) (time.Duration, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || n < 0 || n > math.MaxInt32 {
		return 0, errors.New("invalid delay")
	}
	return time.Duration(n * float64(time.Second)), nil
}
