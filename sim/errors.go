package sim

import "errors"

// Registry and addressing failures.
var (
	ErrIndexOutOfRange   = errors.New("node index out of range")
	ErrEmptyRegistry     = errors.New("network is empty")
	ErrInvalidProtocolID = errors.New("invalid protocol id")
	ErrNodeInNetwork     = errors.New("node must be removed from the network before it dies")
)

// Queue capacity failures.
var (
	ErrTimeOverflow        = errors.New("time does not fit in the event queue")
	ErrInvalidPriorityBits = errors.New("invalid number of priority bits")
	ErrEndTimeTooLarge     = errors.New("end time is too large for the event queue")
	ErrTooManyControls     = errors.New("too many controls for the event queue priority range")
)

// Scheduling and dispatch failures.
var (
	ErrNegativeDelay     = errors.New("negative event delay")
	ErrMalformedSchedule = errors.New("malformed schedule")
	ErrNotReactive       = errors.New("protocol does not react to events")
	ErrNotCyclic         = errors.New("protocol does not implement cycles")
	ErrNoTarget          = errors.New("event has no destination node")
)
