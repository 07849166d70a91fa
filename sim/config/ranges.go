package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxRangeValues bounds the expansion of one range item.
const maxRangeValues = 1 << 20

// ParseValues expands a value list. Items are comma separated; each is a
// literal or a range:
//
//	a:b      a, a+1, ..., b
//	a:b|s    a, a+s, ..., up to b
//	a:b|*k   a, a*k, a*k*k, ..., up to b
//
// Numbers may be written as integer powers (2^10). Non-numeric literals are
// kept verbatim.
func ParseValues(list string) ([]string, error) {
	var out []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, ":") {
			if v, err := parseNumber(item); err == nil {
				out = append(out, formatNumber(v))
			} else {
				out = append(out, item)
			}
			continue
		}
		values, err := expandRange(item)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty value list %q", list)
	}
	return out, nil
}

func expandRange(item string) ([]string, error) {
	bounds, step, hasStep := strings.Cut(item, "|")
	lo, hi, _ := strings.Cut(bounds, ":")
	start, err := parseNumber(lo)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", item, err)
	}
	stop, err := parseNumber(hi)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", item, err)
	}

	mult := false
	inc := 1.0
	if hasStep {
		step = strings.TrimSpace(step)
		if strings.HasPrefix(step, "*") {
			mult = true
			step = step[1:]
		}
		inc, err = parseNumber(step)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", item, err)
		}
	}
	if mult && (inc <= 1 || start <= 0) {
		return nil, fmt.Errorf("range %q: multiplicative step needs factor > 1 and positive start", item)
	}
	if !mult && inc <= 0 {
		return nil, fmt.Errorf("range %q: step must be positive", item)
	}

	var out []string
	for v, i := start, 0; v <= stop; i++ {
		if len(out) >= maxRangeValues {
			return nil, fmt.Errorf("range %q: more than %d values", item, maxRangeValues)
		}
		out = append(out, formatNumber(v))
		if mult {
			v *= inc
		} else {
			// from start each time so float steps do not drift
			v = start + float64(i+1)*inc
		}
	}
	return out, nil
}

// parseNumber accepts decimal numbers and integer powers b^e.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if base, exp, ok := strings.Cut(s, "^"); ok {
		b, err := strconv.ParseFloat(strings.TrimSpace(base), 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", s)
		}
		e, err := strconv.ParseFloat(strings.TrimSpace(exp), 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", s)
		}
		return math.Pow(b, e), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Point is one combination of swept values, as override strings.
type Point []string

// Points returns the cartesian product of the ranges. The last range varies
// fastest.
func Points(ranges []RangeConfig) ([]Point, error) {
	lists := make([][]string, len(ranges))
	total := 1
	for i, r := range ranges {
		values, err := ParseValues(r.Values)
		if err != nil {
			return nil, fmt.Errorf("ranges[%d] (%s): %w", i, r.Param, err)
		}
		lists[i] = values
		total *= len(values)
		if total > maxRangeValues {
			return nil, fmt.Errorf("ranges: more than %d points", maxRangeValues)
		}
	}
	if len(ranges) == 0 {
		return []Point{{}}, nil
	}

	points := make([]Point, 0, total)
	idx := make([]int, len(ranges))
	for {
		p := make(Point, len(ranges))
		for i, r := range ranges {
			p[i] = r.Param + "=" + lists[i][idx[i]]
		}
		points = append(points, p)

		j := len(idx) - 1
		for j >= 0 {
			idx[j]++
			if idx[j] < len(lists[j]) {
				break
			}
			idx[j] = 0
			j--
		}
		if j < 0 {
			return points, nil
		}
	}
}
