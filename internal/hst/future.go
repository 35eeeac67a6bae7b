package hst

import "hst-data/internal/model"

// Future holds the outcome of a cursor call. The *Async methods run the call
// synchronously and return an already settled Future; there is no background I/O.
type Future struct {
	bar  model.Bar
	err  error
	done chan struct{}
}

func settle(b model.Bar, err error) *Future {
	f := &Future{bar: b, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Done is closed once the result is available (always, for futures returned here).
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait returns the settled result.
func (f *Future) Wait() (model.Bar, error) {
	<-f.done
	return f.bar, f.err
}

// NextAsync is Next wrapped in a settled Future.
func (r *Reader) NextAsync() *Future { return settle(r.Next()) }

// PrevAsync is Prev wrapped in a settled Future.
func (r *Reader) PrevAsync() *Future { return settle(r.Prev()) }

// SeekAsync is Seek wrapped in a settled Future.
func (r *Reader) SeekAsync(index int) *Future { return settle(r.Seek(index)) }

// LocateAsync is Locate wrapped in a settled Future.
func (r *Reader) LocateAsync(target int64) *Future { return settle(r.Locate(target)) }
