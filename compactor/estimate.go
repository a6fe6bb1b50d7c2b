package compactor

import (
	"sync/atomic"
	"time"
)

// estimate is the Compactor's shared 5-tuple: the total time and item count
// of the most recently recorded group, the quarter-band around that group's
// per-item average, and the stamp it was recorded under. It is installed as
// a single atomic pointer swap (spec.md §9's "one atomic record swap"), so
// every reader always observes a self-consistent tuple even without a lock —
// the fields of an in-flight estimate are never partially visible the way a
// field-by-field write under no lock would allow.
type estimate struct {
	total time.Duration
	n     int
	muLo  time.Duration
	muHi  time.Duration
	stamp uint64
}

func quarterBand(avg time.Duration) (lo, hi time.Duration) {
	band := avg / 4
	return avg - band, avg + band
}

// bootstrap seeds the estimate from a caller-supplied rough item count,
// rather than a measured group. Per spec.md §9's resolved open question,
// this reproduces the original "set_estimated_number" bootstrap literally:
// avg = target/guess is recorded into the total-time slot, and guess itself
// is left in the count slot (not avg*guess, which would be the "corrected"
// total for a group of that size). Treated as intended rather than a bug to
// fix; see DESIGN.md.
func bootstrapEstimate(target time.Duration, guess int) *estimate {
	if guess < 1 {
		guess = 1
	}
	avg := target / time.Duration(guess)
	lo, hi := quarterBand(avg)
	return &estimate{total: avg, n: guess, muLo: lo, muHi: hi, stamp: 0}
}

// recordedEstimate installs a freshly measured group (size n, duration
// took) as the new shared estimate, under the given stamp.
func recordedEstimate(n int, took time.Duration, stamp uint64) *estimate {
	avg := took / time.Duration(n)
	lo, hi := quarterBand(avg)
	return &estimate{total: took, n: n, muLo: lo, muHi: hi, stamp: stamp}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// applyDynamicUpdate runs the update rule from spec.md §4.5 against the
// shared pointer: a group of size n, measured at took, recorded under
// stamp, either gets installed as the new estimate or is discarded as
// stale or unnecessary. Writes are unsynchronized by design — a racing
// writer might clobber this one, and that's fine, per spec.md §9.
func applyDynamicUpdate(ptr *atomic.Pointer[estimate], target time.Duration, stamp uint64, n int, took time.Duration) {
	current := ptr.Load()
	if current == nil {
		ptr.Store(recordedEstimate(n, took, stamp))
		return
	}
	if stamp < current.stamp {
		return // stale: a newer group already recorded since this one started
	}

	avg := took / time.Duration(n)
	switch {
	case absDuration(target-took) < absDuration(target-current.total) && absDuration(took-current.total) > current.total/10:
		ptr.Store(recordedEstimate(n, took, stamp))
	case avg < current.muLo || avg > current.muHi:
		ptr.Store(recordedEstimate(n, took, stamp))
	}
}

// suggestedSize computes the next group size from the current estimate and
// target, per spec.md §4.5's formula, floored at 1.
func suggestedSize(est *estimate, target time.Duration, scaleUp, scaleDown int) int {
	if est == nil {
		return 1
	}
	n := est.n
	if n < 1 {
		n = 1
	}

	if est.total > target {
		if est.total/time.Duration(scaleDown) >= target {
			return maxInt(1, n/scaleDown)
		}
		return maxInt(1, ceilProportional(target, n, est.total))
	}

	if est.total*time.Duration(scaleUp) <= target {
		return maxInt(1, n*scaleUp)
	}
	return maxInt(1, ceilProportional(target, n, est.total))
}

// ceilProportional computes ceil(target*n/total) using integer nanosecond
// arithmetic, avoiding the precision loss of a float round trip.
func ceilProportional(target time.Duration, n int, total time.Duration) int {
	if total <= 0 {
		return n
	}
	num := int64(target) * int64(n)
	den := int64(total)
	q := num / den
	if num%den != 0 {
		q++
	}
	return int(q)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
