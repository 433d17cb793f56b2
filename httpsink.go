package faultline

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/certifi/gocertifi"
	"github.com/pkg/errors"

	"github.com/faultline/faultline-go/internal/debuglog"
	"github.com/faultline/faultline-go/internal/ratelimit"
	"github.com/faultline/faultline-go/internal/report"
)

const defaultBufferSize = 30
const defaultHTTPTimeout = time.Second * 30

// maxDrainResponseBytes caps how much of a response body gets read while
// draining it. Bodies must be drained and closed for TCP keep-alive to
// work, but a misbehaving server should not make us read forever.
const maxDrainResponseBytes = 16 << 10

// HTTPSinkOptions configures an HTTPSink.
type HTTPSinkOptions struct {
	// Dsn identifies the ingestion endpoint and supplies request headers.
	Dsn *Dsn

	// Feedback, usually the owning Transport, receives rate limits and
	// delivery losses observed on responses. Optional.
	Feedback Feedback

	HTTPClient    *http.Client
	HTTPTransport *http.Transport
	HTTPProxy     string
	HTTPSProxy    string
	CaCerts       *x509.CertPool

	// BufferSize is the capacity of the request buffer.
	BufferSize int

	// Timeout for each HTTP request.
	Timeout time.Duration
}

// HTTPSink posts serialized envelopes to the ingestion endpoint from a
// background worker. Send enqueues and returns immediately; a full buffer
// surfaces as ErrQueueFull instead of blocking the caller.
//
// Observed rate limits and connection-level delivery failures are passed
// to the configured Feedback; the sink itself never retries.
type HTTPSink struct {
	dsn       *Dsn
	client    *http.Client
	transport *http.Transport
	feedback  Feedback

	buffer chan *http.Request

	wg    sync.WaitGroup
	start sync.Once
}

// NewHTTPSink creates the sink and starts its delivery worker.
func NewHTTPSink(options HTTPSinkOptions) *HTTPSink {
	s := &HTTPSink{
		dsn:      options.Dsn,
		feedback: options.Feedback,
	}

	bufferSize := defaultBufferSize
	if options.BufferSize != 0 {
		bufferSize = options.BufferSize
	}
	s.buffer = make(chan *http.Request, bufferSize)

	timeout := defaultHTTPTimeout
	if options.Timeout != 0 {
		timeout = options.Timeout
	}

	if options.HTTPTransport != nil {
		s.transport = options.HTTPTransport
	} else {
		s.transport = &http.Transport{
			Proxy:           getProxyConfig(options),
			TLSClientConfig: getTLSConfig(options),
		}
	}

	if options.HTTPClient != nil {
		s.client = options.HTTPClient
	} else {
		s.client = &http.Client{
			Transport: s.transport,
			Timeout:   timeout,
		}
	}

	s.start.Do(func() {
		go s.worker()
	})

	return s
}

// Send implements Sink. It builds the HTTP request and enqueues it for the
// worker, failing with ErrQueueFull when the buffer is full.
func (s *HTTPSink) Send(payload []byte) error {
	if s.dsn == nil {
		return errors.New("faultline: http sink has no dsn")
	}

	request, err := http.NewRequest(
		http.MethodPost,
		s.dsn.EnvelopeAPIURL().String(),
		bytes.NewBuffer(payload),
	)
	if err != nil {
		return errors.Wrap(err, "faultline: building request")
	}

	for headerKey, headerValue := range s.dsn.RequestHeaders(time.Now()) {
		request.Header.Set(headerKey, headerValue)
	}

	select {
	case s.buffer <- request:
		s.wg.Add(1)
		return nil
	default:
		debuglog.Println("Envelope dropped due to sink buffer being full")
		return ErrQueueFull
	}
}

// Flush notifies when all buffered envelopes have been delivered by
// returning true, or false if the timeout was reached first.
func (s *HTTPSink) Flush(timeout time.Duration) bool {
	c := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *HTTPSink) worker() {
	for request := range s.buffer {
		response, err := s.client.Do(request)

		if err != nil {
			debuglog.Printf("There was an issue with delivering an envelope: %v", err)
			if s.feedback != nil {
				s.feedback.RecordLoss(report.ReasonNetworkError, ratelimit.CategoryError)
			}
			s.wg.Done()
			continue
		}

		if s.feedback != nil {
			s.feedback.RecordLimits(ratelimit.FromResponse(response))
		}
		if response.StatusCode == http.StatusTooManyRequests {
			debuglog.Println("Too many requests, backing off")
		}

		// Drain and close the body so the client can reuse the
		// connection.
		_, _ = io.CopyN(io.Discard, response.Body, maxDrainResponseBytes)
		response.Body.Close()

		s.wg.Done()
	}
}

func getProxyConfig(options HTTPSinkOptions) func(*http.Request) (*url.URL, error) {
	if options.HTTPSProxy != "" {
		return func(*http.Request) (*url.URL, error) {
			return url.Parse(options.HTTPSProxy)
		}
	}

	if options.HTTPProxy != "" {
		return func(*http.Request) (*url.URL, error) {
			return url.Parse(options.HTTPProxy)
		}
	}

	return http.ProxyFromEnvironment
}

func getTLSConfig(options HTTPSinkOptions) *tls.Config {
	if options.CaCerts != nil {
		return &tls.Config{
			RootCAs: options.CaCerts,
		}
	}

	rootCAs, err := gocertifi.CACerts()
	if err != nil {
		debuglog.Printf("Couldn't load CA certificates: %v", err)
	}
	return &tls.Config{
		RootCAs: rootCAs,
	}
}
