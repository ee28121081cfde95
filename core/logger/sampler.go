package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler passes the first num events out of every den-sized
// window. A zero ratio disables sampling entirely.
type ratioSampler struct {
	mu     sync.Mutex
	num    int
	den    int
	window int
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

func (s *ratioSampler) Set(num, den int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if num <= 0 || den <= 0 {
		s.num, s.den, s.window = 0, 0, 0
		return
	}
	if num > den {
		num = den
	}
	s.num, s.den, s.window = num, den, 0
}

func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.num <= 0 || s.den <= 0 {
		return true
	}
	s.window++
	if s.window > s.den {
		s.window = 1
	}
	return s.window <= s.num
}

// parseRatioSpec accepts "N/M" or a bare "M" meaning 1/M.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 == nil && err2 == nil {
			return n, d
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
