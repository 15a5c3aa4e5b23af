package audit

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/valyala/bytebufferpool"
)

// Snapshot substitutes an in-memory buffer for the real response writer so
// the status code and body are inspectable after the downstream handler
// completes. The buffered bytes are replayed verbatim onto the real writer
// exactly once; Close is safe to call from both the normal path and a
// deferred panic path.
//
// The buffer is owned by the snapshot: it is taken from a pool on Intercept
// and returned on Close, on every exit path. Byte fidelity of the replay is
// a correctness invariant — clients must receive exactly what the handler
// wrote.
type Snapshot struct {
	response *echo.Response
	original http.ResponseWriter
	buf      *bytebufferpool.ByteBuffer

	status      int
	wroteHeader bool
	closed      bool
}

// Intercept installs the capture buffer on the response and returns the
// snapshot that controls it.
func Intercept(res *echo.Response) *Snapshot {
	s := &Snapshot{
		response: res,
		original: res.Writer,
		buf:      bytebufferpool.Get(),
		status:   http.StatusOK,
	}
	res.Writer = s
	return s
}

// Header returns the header map of the real writer; headers are not
// buffered, only status and body are.
func (s *Snapshot) Header() http.Header {
	return s.original.Header()
}

// WriteHeader records the status code without committing it to the
// transport. The real WriteHeader happens once, during replay.
func (s *Snapshot) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
}

// Write appends to the owned buffer.
func (s *Snapshot) Write(b []byte) (int, error) {
	return s.buf.Write(b)
}

// Flush is a no-op: bytes are held until replay. Implementing http.Flusher
// keeps handlers that probe for it working.
func (s *Snapshot) Flush() {}

// Status returns the captured status code.
func (s *Snapshot) Status() int {
	return s.status
}

// BodyLen returns the number of buffered body bytes.
func (s *Snapshot) BodyLen() int {
	return s.buf.Len()
}

// BodyCopy returns a copy of the buffered body, truncated to limit bytes
// (no truncation when limit <= 0). The copy stays valid after Close.
func (s *Snapshot) BodyCopy(limit int) []byte {
	b := s.buf.B
	if limit > 0 && len(b) > limit {
		b = b[:limit]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Wrote reports whether the handler committed a status or any body bytes.
func (s *Snapshot) Wrote() bool {
	return s.wroteHeader || s.buf.Len() > 0
}

// Close restores the original writer and replays the buffered response onto
// it, then releases the buffer. It runs its effects exactly once; later
// calls are no-ops. A replay failure is returned to the caller — it is
// fatal to the request, there is no way to un-send a partial body.
func (s *Snapshot) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.response.Writer = s.original
	defer func() {
		bytebufferpool.Put(s.buf)
		s.buf = nil
	}()

	if !s.Wrote() {
		// Nothing committed; leave the response to whoever runs next
		// (e.g. echo's error handler).
		return nil
	}

	if s.wroteHeader {
		s.original.WriteHeader(s.status)
	}
	if len(s.buf.B) > 0 {
		n, err := s.original.Write(s.buf.B)
		if err != nil {
			return fmt.Errorf("audit: replay response body: %w", err)
		}
		if n != len(s.buf.B) {
			return fmt.Errorf("audit: short replay: wrote %d of %d bytes", n, len(s.buf.B))
		}
	}
	if f, ok := s.original.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
