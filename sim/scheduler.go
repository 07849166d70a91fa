package sim

import (
	"fmt"
	"math"
)

// PostSimulationTime is the pseudo-time at which schedules flagged Final are
// active. It is never a valid queue time.
const PostSimulationTime int64 = -1

// Scheduler decides at which logical times a control or a cycle fires.
// Active points are From, From+Step, ... strictly below Until. A single-shot
// schedule (At set) has exactly one active point. Final marks the schedule as
// also active once after the experiment ends.
//
// The zero value is not valid; build schedules with NewScheduler or AtTime.
type Scheduler struct {
	From  int64
	Step  int64
	Until int64
	Final bool

	at     int64
	single bool
}

// NewScheduler returns the periodic schedule from, from+step, ... < until.
func NewScheduler(from, step, until int64, final bool) (Scheduler, error) {
	s := Scheduler{From: from, Step: step, Until: until, Final: final}
	if err := s.validate(); err != nil {
		return Scheduler{}, err
	}
	return s, nil
}

// AtTime returns a single-shot schedule active only at time at.
func AtTime(at int64, final bool) (Scheduler, error) {
	if at < 0 {
		return Scheduler{}, fmt.Errorf("%w: at=%d is negative", ErrMalformedSchedule, at)
	}
	until := at + 1
	if at == math.MaxInt64 {
		until = at
	}
	return Scheduler{From: at, Step: 1, Until: until, Final: final, at: at, single: true}, nil
}

// Always returns a schedule active at every time point from 0, in steps of step.
func Always(step int64) Scheduler {
	if step < 1 {
		panic(fmt.Sprintf("Always: step must be >= 1, got %d", step))
	}
	return Scheduler{From: 0, Step: step, Until: math.MaxInt64}
}

func (s Scheduler) validate() error {
	if s.Step < 1 {
		return fmt.Errorf("%w: step=%d must be >= 1", ErrMalformedSchedule, s.Step)
	}
	if s.From < 0 {
		return fmt.Errorf("%w: from=%d is negative", ErrMalformedSchedule, s.From)
	}
	if s.Until < s.From {
		return fmt.Errorf("%w: until=%d precedes from=%d", ErrMalformedSchedule, s.Until, s.From)
	}
	return nil
}

// SingleShot reports whether the schedule fires exactly once.
func (s Scheduler) SingleShot() bool { return s.single }

// IsActiveAt reports whether time is an active point of the schedule.
func (s Scheduler) IsActiveAt(time int64) bool {
	if time == PostSimulationTime {
		return s.Final
	}
	if s.single {
		return time == s.at
	}
	if time < s.From || time >= s.Until {
		return false
	}
	return (time-s.From)%s.Step == 0
}

// Next returns the smallest active time >= time, or false when no such time
// exists below Until.
func (s Scheduler) Next(time int64) (int64, bool) {
	if s.single {
		if time <= s.at {
			return s.at, true
		}
		return 0, false
	}
	if time <= s.From {
		if s.From < s.Until {
			return s.From, true
		}
		return 0, false
	}
	if time >= s.Until {
		return 0, false
	}
	// k = ceil((time-from)/step), computed without overflowing
	delta := time - s.From
	k := delta / s.Step
	if delta%s.Step != 0 {
		k++
	}
	if k > (math.MaxInt64-s.From)/s.Step {
		return 0, false
	}
	next := s.From + k*s.Step
	if next >= s.Until {
		return 0, false
	}
	return next, true
}

// After returns the first active time strictly after time.
func (s Scheduler) After(time int64) (int64, bool) {
	if time == math.MaxInt64 {
		return 0, false
	}
	return s.Next(time + 1)
}

func (s Scheduler) String() string {
	if s.single {
		return fmt.Sprintf("at=%d final=%v", s.at, s.Final)
	}
	return fmt.Sprintf("from=%d step=%d until=%d final=%v", s.From, s.Step, s.Until, s.Final)
}
