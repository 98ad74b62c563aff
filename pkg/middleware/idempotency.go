package middleware

import (
	"bytes"
	"net/http"
	"servicely/pkg/auth"
	apperrors "servicely/pkg/errors"
	"strings"
	"sync"
	"time"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	ReplayedHeader           = "Idempotent-Replayed"
	sweepInterval            = 10 * time.Minute
)

// IdempotencyStore remembers successful responses by scoped key. Begin
// claims a key for an in-flight request; a second claim fails until the
// first request calls Finish or Abort.
type IdempotencyStore interface {
	Lookup(key string) (*CachedResponse, bool)
	Begin(key string) bool
	Finish(key string, response *CachedResponse)
	Abort(key string)
	Stop()
}

type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
	stored time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	done     map[string]*CachedResponse
	inFlight map[string]struct{}
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		done:     make(map[string]*CachedResponse),
		inFlight: make(map[string]struct{}),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *InMemoryIdempotencyStore) Lookup(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.done[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(resp.stored) > s.ttl {
		delete(s.done, key)
		return nil, false
	}
	return resp, true
}

func (s *InMemoryIdempotencyStore) Begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, key)
	response.stored = s.now()
	s.done[key] = response
}

func (s *InMemoryIdempotencyStore) Abort(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

func (s *InMemoryIdempotencyStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			cutoff := s.now().Add(-s.ttl)
			for key, resp := range s.done {
				if resp.stored.Before(cutoff) {
					delete(s.done, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// bodyRecorder tees the response so it can be stored after the handler returns.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (br *bodyRecorder) WriteHeader(status int) {
	if br.status == 0 {
		br.status = status
	}
	br.ResponseWriter.WriteHeader(status)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if br.status == 0 {
		br.status = http.StatusOK
	}
	br.body.Write(b)
	return br.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a repeated write carrying
// the same key. A repeat that arrives while the first is still running gets
// a 409 instead of a second booking or chat message.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scopedIdempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := store.Lookup(key); ok {
				replay(w, cached)
				return
			}
			if !store.Begin(key) {
				reject(w, apperrors.Conflict("A request with this idempotency key is already in progress"))
				return
			}

			rec := &bodyRecorder{ResponseWriter: w}
			completed := false
			defer func() {
				if !completed {
					store.Abort(key)
				}
			}()

			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status > 299 {
				return
			}
			store.Finish(key, &CachedResponse{
				Status: rec.status,
				Header: w.Header().Clone(),
				Body:   bytes.Clone(rec.body.Bytes()),
			})
			completed = true
		})
	}
}

// scopedIdempotencyKey ties the client key to the caller and the route, so
// one user's key never replays another user's booking or message.
func scopedIdempotencyKey(r *http.Request, headerName string) string {
	key := strings.TrimSpace(r.Header.Get(headerName))
	if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return ""
	}
	return strings.Join([]string{auth.SubjectFromContext(r.Context()), r.Method, r.URL.Path, key}, " ")
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for name, values := range cached.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}
