package hst

import (
	"fmt"
	"math"

	"hst-data/internal/model"
)

// MaxLocateAttempts caps the refinement loop in Locate.
const MaxLocateAttempts = 50

// LocateResult is a located record plus how many refinements it took.
// Attempts is 0 when the first estimate hit the target.
type LocateResult struct {
	Bar      model.Bar
	Index    int
	Attempts int
}

// Locate moves the cursor to the record whose timestamp equals target (ms),
// estimating from the header start time.
func (r *Reader) Locate(target int64) (model.Bar, error) {
	res, err := r.LocateFrom(target, r.header.Start)
	return res.Bar, err
}

// LocateFrom is Locate with an explicit reference time for the current cursor index.
//
// The index delta is estimated as (target-ref)/period from the current index. When the
// candidate misses, the estimate is re-anchored on the candidate's own timestamp, which
// walks across gaps in trading hours. A zero timestamp (unreadable or blank bar) makes
// the search fall back to half the current index. On failure the cursor is left where
// it was before the call.
//
// target and ref are compared with decoded bar times as is, so for VersionCurrent files
// they are in the file's own unit; see LocateMillis.
func (r *Reader) LocateFrom(target, ref int64) (LocateResult, error) {
	return r.locate(target, ref, r.header.PeriodMillis())
}

// LocateMillis finds the bar at ms for any supported version. Target, start time and
// period are all converted to the file's time unit before searching, and the returned
// bar has its timestamp in milliseconds.
func (r *Reader) LocateMillis(ms int64) (LocateResult, error) {
	scale := r.layout.timeScale()
	if ms%scale != 0 {
		return LocateResult{}, fmt.Errorf("%w: %d is not a whole %d ms unit", ErrTimestampNotFound, ms, scale)
	}
	res, err := r.locate(ms/scale, r.header.Start/scale, r.header.PeriodMillis()/scale)
	if err != nil {
		return res, err
	}
	res.Bar = r.layout.Normalize(res.Bar)
	return res, nil
}

func (r *Reader) locate(target, ref, period int64) (LocateResult, error) {
	if period <= 0 {
		return LocateResult{}, fmt.Errorf("%w: invalid period %d", ErrTimestampNotFound, r.header.Period)
	}

	savedIndex, savedOffset := r.index, r.offset
	restore := func() {
		r.index, r.offset = savedIndex, savedOffset
	}

	for attempt := 0; ; attempt++ {
		next, ok := estimate(r.index, target, ref, period)
		if !ok {
			restore()
			return LocateResult{}, fmt.Errorf("%w: estimate for %d from %d overflows", ErrTooSmall, target, ref)
		}
		b, err := r.Seek(next)
		if err != nil {
			restore()
			return LocateResult{}, err
		}
		if b.Timestamp == target {
			return LocateResult{Bar: b, Index: r.index, Attempts: attempt}, nil
		}
		if attempt >= MaxLocateAttempts {
			restore()
			return LocateResult{}, fmt.Errorf("%w: %d after %d attempts", ErrTimestampNotFound, target, MaxLocateAttempts)
		}
		if b.Timestamp != 0 {
			ref = b.Timestamp
			continue
		}
		half, err := r.Seek(r.index / 2)
		if err != nil {
			restore()
			return LocateResult{}, err
		}
		ref = half.Timestamp
	}
}

// estimate returns index + (target-ref)/period, or false when either step overflows.
func estimate(index int, target, ref, period int64) (int, bool) {
	if (ref > 0 && target < math.MinInt64+ref) || (ref < 0 && target > math.MaxInt64+ref) {
		return 0, false
	}
	delta := (target - ref) / period
	if (delta > 0 && int64(index) > math.MaxInt-delta) || (delta < 0 && int64(index) < math.MinInt-delta) {
		return 0, false
	}
	return index + int(delta), true
}
