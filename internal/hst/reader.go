package hst

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"math"
	"os"

	"hst-data/internal/model"
)

// Option configures a Reader at open time.
type Option func(*Reader)

// WithLogger sets the logger used for open/refresh diagnostics (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// Reader is a read-only cursor over one history file.
// A Reader is not safe for concurrent use; open one per goroutine instead.
type Reader struct {
	path   string
	file   *os.File
	size   int64
	header Header
	layout Layout
	logger *slog.Logger

	index  int
	offset int64
	err    error // last iteration error, see Err
}

// Open opens path, decodes the header and positions the cursor just before record 0,
// so the first Next returns record 0. Unsupported versions are rejected here.
func Open(path string, opts ...Option) (*Reader, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	r := &Reader{path: path, file: f, size: st.Size(), logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}

	if err := r.init(); err != nil {
		_ = f.Close()
		return nil, err
	}
	r.logger.Debug("hst open", "path", path, "version", int32(r.header.Version),
		"symbol", r.header.Ticker(), "period", r.header.Period, "records", r.Len())
	return r, nil
}

func (r *Reader) init() error {
	h, err := readHeader(r.file, r.size)
	if err != nil {
		return fmt.Errorf("%s: %w", r.path, err)
	}
	l, ok := Describe(h.Version)
	if !ok {
		return fmt.Errorf("%w: %d in %s", ErrUnsupportedVersion, h.Version, r.path)
	}
	r.header = h
	r.layout = l
	r.index = 0
	r.offset = HeaderSize - int64(l.RecordSize)
	return nil
}

// Close releases the file handle. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Header returns the decoded preamble.
func (r *Reader) Header() Header { return r.header }

// Layout returns the record layout selected by the header version.
func (r *Reader) Layout() Layout { return r.layout }

// Path returns the file path given to Open.
func (r *Reader) Path() string { return r.path }

// Size returns the file size seen at open or at the last Refresh.
func (r *Reader) Size() int64 { return r.size }

// Index returns the current record index. Before the first positioning call it is 0
// while the cursor sits one record before the record area.
func (r *Reader) Index() int { return r.index }

// Offset returns the current byte offset.
func (r *Reader) Offset() int64 { return r.offset }

// Len returns the number of whole records in the file.
func (r *Reader) Len() int {
	if r.size <= HeaderSize {
		return 0
	}
	return int((r.size - HeaderSize) / int64(r.layout.RecordSize))
}

// Refresh re-reads the file size so records appended since open become reachable.
func (r *Reader) Refresh() (int64, error) {
	if r.file == nil {
		return 0, os.ErrClosed
	}
	st, err := r.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", r.path, err)
	}
	if st.Size() != r.size {
		r.logger.Debug("hst refresh", "path", r.path, "old_size", r.size, "size", st.Size())
		r.size = st.Size()
	}
	return r.size, nil
}

func (r *Reader) recordSize() int64 { return int64(r.layout.RecordSize) }

func (r *Reader) indexOf(off int64) int {
	return int((off - HeaderSize) / r.recordSize())
}

// moveTo decodes the record at off and, on success only, moves the cursor there.
func (r *Reader) moveTo(index int, off int64) (model.Bar, error) {
	if r.file == nil {
		return model.Bar{}, os.ErrClosed
	}
	b, err := decodeAt(r.file, r.size, r.layout, off)
	if err != nil {
		return model.Bar{}, err
	}
	r.index = index
	r.offset = off
	return b, nil
}

// Next advances one record and decodes it.
func (r *Reader) Next() (model.Bar, error) {
	off := r.offset + r.recordSize()
	if off+r.recordSize() > r.size {
		return model.Bar{}, ErrEndOfFile
	}
	return r.moveTo(r.indexOf(off), off)
}

// Prev steps back one record and decodes it.
func (r *Reader) Prev() (model.Bar, error) {
	off := r.offset - r.recordSize()
	if off < HeaderSize {
		return model.Bar{}, ErrStartOfFile
	}
	return r.moveTo(r.indexOf(off), off)
}

// Seek positions the cursor on record index and decodes it. Only the upper bound is
// checked against the file size; a negative index is reported as ErrOutOfRange.
func (r *Reader) Seek(index int) (model.Bar, error) {
	if index < 0 {
		return model.Bar{}, fmt.Errorf("%w: record %d", ErrOutOfRange, index)
	}
	// the offset must not wrap past MaxInt64
	if int64(index) > (math.MaxInt64-HeaderSize)/r.recordSize() {
		return model.Bar{}, fmt.Errorf("%w: record %d beyond file size %d", ErrTooSmall, index, r.size)
	}
	off := HeaderSize + int64(index)*r.recordSize()
	if off >= r.size {
		return model.Bar{}, fmt.Errorf("%w: record %d at offset %d, file size %d", ErrTooSmall, index, off, r.size)
	}
	return r.moveTo(index, off)
}

// All yields every record from index 0. The cursor ends on the last record yielded.
func (r *Reader) All() iter.Seq2[int, model.Bar] {
	return r.Range(0)
}

// Err returns the error that stopped the last All/Range iteration, if any.
func (r *Reader) Err() error { return r.err }

// Range yields records starting at index from until the end of the file.
// Decode errors end the iteration; use Err to inspect the last one.
func (r *Reader) Range(from int) iter.Seq2[int, model.Bar] {
	return func(yield func(int, model.Bar) bool) {
		r.err = nil
		if from >= r.Len() {
			return
		}
		b, err := r.Seek(from)
		if err != nil {
			r.err = err
			return
		}
		if !yield(r.index, b) {
			return
		}
		for {
			b, err := r.Next()
			if errors.Is(err, ErrEndOfFile) {
				return
			}
			if err != nil {
				r.err = err
				return
			}
			if !yield(r.index, b) {
				return
			}
		}
	}
}
