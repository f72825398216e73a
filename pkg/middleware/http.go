// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package middleware

import (
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"

	"github.com/cilium/reqmetrics/pkg/logger/logfields"
)

// StatusClientClosedRequest is recorded for requests whose client went
// away before a response was started.
const StatusClientClosedRequest = 499

// Wrap instruments next. Requests for the scrape endpoint are answered with
// the recorder's export and never reach next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isScrape(r) {
			m.serveScrape(w)
			return
		}

		c, err := m.begin(r.Method, m.pathLabel(r))
		if err != nil {
			m.onError(err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		version := strconv.Itoa(r.ProtoMajor) + "." + strconv.Itoa(r.ProtoMinor)
		rw := &statusRecorder{code: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				m.end(c, strconv.Itoa(http.StatusInternalServerError), version)
				panic(p)
			}
			code := rw.code
			if !rw.started && r.Context().Err() != nil {
				code = StatusClientClosedRequest
			}
			m.end(c, strconv.Itoa(code), version)
		}()
		next.ServeHTTP(rw.wrap(w), r)
	})
}

// statusRecorder captures the status code sent by a handler. It's only
// touched by the goroutine serving the request.
type statusRecorder struct {
	code    int
	started bool
}

func (s *statusRecorder) wrap(w http.ResponseWriter) http.ResponseWriter {
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				// informational responses may precede the final one
				if !s.started && code >= http.StatusOK {
					s.code = code
					s.started = true
				}
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				s.started = true
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				s.started = true
				return next(src)
			}
		},
		// a flush sends the headers, 200 unless one was written
		Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return func() {
				s.started = true
				next()
			}
		},
	})
}

func (m *Middleware) isScrape(r *http.Request) bool {
	if r.URL.Path != m.cfg.ScrapePath {
		return false
	}
	port, ok := servingPort(r)
	return ok && port == m.cfg.ScrapePort
}

// servingPort returns the local port the request was received on. Requests
// that didn't go through an http.Server fall back to the Host header.
func servingPort(r *http.Request) (int, bool) {
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		if tcp, ok := addr.(*net.TCPAddr); ok {
			return tcp.Port, true
		}
		if _, p, err := net.SplitHostPort(addr.String()); err == nil {
			if port, err := strconv.Atoi(p); err == nil {
				return port, true
			}
		}
	}

	_, p, err := net.SplitHostPort(r.Host)
	if err != nil {
		// no port in Host, use the scheme default
		if r.Host == "" {
			return 0, false
		}
		if r.TLS != nil {
			return 443, true
		}
		return 80, true
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, false
	}
	return port, true
}

func (m *Middleware) serveScrape(w http.ResponseWriter) {
	body, err := m.rec.Export()
	if err != nil {
		m.log.WithError(err).WithField(logfields.Path, m.cfg.ScrapePath).Warn("Metrics export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", m.rec.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
