package shared

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// LatencyRecorder appends one CSV line per send: start time, key and the
// elapsed milliseconds.
type LatencyRecorder struct {
	w   io.WriteCloser
	mtx *sync.Mutex
}

func NewLatencyRecorder(filename string) (*LatencyRecorder, error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open latency file %s", filename)
	}
	return newLatencyRecorder(file), nil
}

func newLatencyRecorder(w io.WriteCloser) *LatencyRecorder {
	return &LatencyRecorder{
		w:   w,
		mtx: &sync.Mutex{},
	}
}

func (q *LatencyRecorder) Record(key string, start time.Time, elapsed time.Duration) error {
	text := fmt.Sprintf("%s,%s,%d\n",
		start.UTC().Format(time.RFC3339),
		key,
		elapsed.Milliseconds(),
	)

	q.mtx.Lock()
	defer q.mtx.Unlock()
	_, err := io.WriteString(q.w, text)
	return err
}

func (q *LatencyRecorder) Close() error {
	return q.w.Close()
}
