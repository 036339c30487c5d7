package bridge

import (
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle position of a script instance.
type State uint8

const (
	// StateConstructed: fields hold their defaults, no handle yet.
	StateConstructed State = iota
	// StateReady: handle assigned, OnStart not yet run.
	StateReady
	StateStarted
	// StateDetached is terminal.
	StateDetached
)

var stateNames = [...]string{"Constructed", "Ready", "Started", "Detached"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}

type reference struct {
	field      string
	binding    Binding
	capability Capability
	handle     Handle
}

// Instance is one script attached to one entity.
type Instance struct {
	name     string
	revision uint64
	script   Script
	bridge   *Bridge
	binding  Binding
	handle   Handle
	state    State
	refs     []reference
	logger   *zap.Logger

	faultedAt   uint64
	consecutive int
	stats       instanceStats
}

func (i *Instance) Name() string     { return i.name }
func (i *Instance) Script() Script   { return i.script }
func (i *Instance) Binding() Binding { return i.binding }
func (i *Instance) Handle() Handle   { return i.handle }
func (i *Instance) State() State     { return i.state }

// Revision is the field-layout revision of the script type the instance was
// built from.
func (i *Instance) Revision() uint64 { return i.revision }

func (i *Instance) Stats() InstanceStats {
	return i.stats.snapshot(i)
}

// ConsecutiveFaults counts the ticks in a row in which the instance faulted.
func (i *Instance) ConsecutiveFaults() int { return i.consecutive }

func (i *Instance) active() bool {
	return i.state == StateReady || i.state == StateStarted
}

// InstanceStats provides execution statistics for one script instance.
type InstanceStats struct {
	Name         string        `json:"name"`
	Handle       Handle        `json:"handle"`
	State        State         `json:"state"`
	Updates      int64         `json:"updates"`
	Faults       int64         `json:"faults"`
	MinDuration  time.Duration `json:"min_duration"`
	MaxDuration  time.Duration `json:"max_duration"`
	AvgDuration  time.Duration `json:"avg_duration"`
	LastDuration time.Duration `json:"last_duration"`
}

type instanceStats struct {
	updates       int64
	faults        int64
	minDuration   time.Duration
	maxDuration   time.Duration
	totalDuration time.Duration
	lastDuration  time.Duration
}

func (s *instanceStats) record(d time.Duration) {
	if s.updates == 0 || d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
	s.updates++
	s.lastDuration = d
	s.totalDuration += d
}

func (s *instanceStats) snapshot(i *Instance) InstanceStats {
	var avg time.Duration
	if s.updates > 0 {
		avg = s.totalDuration / time.Duration(s.updates)
	}
	return InstanceStats{
		Name:         i.name,
		Handle:       i.handle,
		State:        i.state,
		Updates:      s.updates,
		Faults:       s.faults,
		MinDuration:  s.minDuration,
		MaxDuration:  s.maxDuration,
		AvgDuration:  avg,
		LastDuration: s.lastDuration,
	}
}
