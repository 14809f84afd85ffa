package generators

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Source is a lock-guarded random source. Seeded sources give deterministic generation
// for tests; the default source is shared by the whole process.
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSource(seed int64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

var (
	defaultMu     sync.RWMutex
	defaultSource = NewSource(time.Now().UnixNano())
)

// DefaultSource returns the process-wide random source.
func DefaultSource() *Source {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSource
}

// SeedDefaultSource replaces the process-wide source with one using the given seed.
func SeedDefaultSource(seed int64) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSource = NewSource(seed)
}

func (s *Source) use(fn func(r *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rnd)
}

// Intn returns a value in [0, n). n must be positive.
func (s *Source) Intn(n int) (v int) {
	s.use(func(r *rand.Rand) { v = r.Intn(n) })
	return v
}

// IntRange returns a value in [min, max]. Spans wider than MaxInt64 are drawn from
// 64 random bits.
func (s *Source) IntRange(min, max int64) (v int64) {
	if max <= min {
		return min
	}
	span := uint64(max) - uint64(min)
	s.use(func(r *rand.Rand) {
		switch {
		case span < math.MaxInt64:
			v = min + r.Int63n(int64(span)+1)
		case span == math.MaxUint64:
			v = int64(r.Uint64())
		default:
			n := r.Uint64()
			for n > span {
				n = r.Uint64()
			}
			v = int64(uint64(min) + n)
		}
	})
	return v
}

func (s *Source) Bool() (v bool) {
	s.use(func(r *rand.Rand) { v = r.Intn(2) == 1 })
	return v
}

// Read fills p with random bytes, so the source can back uuid generation.
func (s *Source) Read(p []byte) (n int, err error) {
	s.use(func(r *rand.Rand) { n, err = r.Read(p) })
	return n, err
}

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits       = "0123456789"
	hexDigits    = "0123456789abcdef"
)

// maxLength bounds generated strings so a contract cannot request unbounded memory.
const maxLength = 1 << 20

func checkLength(kind, field string, n int) error {
	if n < 0 || n > maxLength {
		return errors.Wrapf(ErrInvalidGenerator, "%s %s must be between 0 and %d, got %d", kind, field, maxLength, n)
	}
	return nil
}

func (s *Source) stringFrom(alphabet string, size int) string {
	if size <= 0 {
		return ""
	}
	b := make([]byte, size)
	s.use(func(r *rand.Rand) {
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
	})
	return string(b)
}
