// Package progress reports byte counts for long-running bundle downloads.
package progress

import (
	"io"

	"github.com/havenml/modelout/core"
)

// Reader counts bytes as they are read and invokes a core.ProgressFunc with
// the running total. It wraps the S3 response body so callers see download
// progress without the store layer knowing who is listening.
type Reader struct {
	src    io.Reader
	report core.ProgressFunc
	total  int64
	seen   int64
}

// NewReader wraps r. Pass total -1 when the content length is unknown; the
// report callback may be nil.
func NewReader(r io.Reader, total int64, report core.ProgressFunc) *Reader {
	return &Reader{src: r, report: report, total: total}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.seen += int64(n)
		if r.report != nil {
			r.report(r.seen, r.total)
		}
	}
	return n, err
}

// Close closes the wrapped reader when it is closable, so the Reader can
// stand in for an S3 response body.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
