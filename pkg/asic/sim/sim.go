// Package sim provides an in-memory ASIC driver used by unit tests and
// by the offline CLI. It keeps the register state a real driver would,
// records every call in order, and supports failure injection.
package sim

import (
	"sync"

	"github.com/packetplane/switchd/pkg/asic"
)

// Call names recorded in the op log.
const (
	CallPortControlGet       = "PortControlGet"
	CallPortControlSet       = "PortControlSet"
	CallSwitchControlPortSet = "SwitchControlPortSet"
	CallL2AddrDeleteByPort   = "L2AddrDeleteByPort"
	CallPortEnableSet        = "PortEnableSet"
	CallPortSpeedSet         = "PortSpeedSet"
	CallLinkscanModeSet      = "LinkscanModeSet"
	CallFlexPortProgram      = "FlexPortProgram"
)

// Op is one recorded driver call.
type Op struct {
	Call    string
	Port    asic.PhysID
	Control int32
	Value   int
}

// Simulator implements asic.SDK against in-memory state.
type Simulator struct {
	mu sync.Mutex

	exists   map[asic.PhysID]bool
	lanes    map[asic.PhysID]int
	enabled  map[asic.PhysID]bool
	linkscan map[asic.PhysID]bool
	speeds   map[asic.PhysID]int
	controls map[asic.PhysID]map[asic.SwitchControl]int

	ops      []Op
	failNext map[string]asic.Status
}

var _ asic.SDK = (*Simulator)(nil)

func New() *Simulator {
	return &Simulator{
		exists:   make(map[asic.PhysID]bool),
		lanes:    make(map[asic.PhysID]int),
		enabled:  make(map[asic.PhysID]bool),
		linkscan: make(map[asic.PhysID]bool),
		speeds:   make(map[asic.PhysID]int),
		controls: make(map[asic.PhysID]map[asic.SwitchControl]int),
		failNext: make(map[string]asic.Status),
	}
}

// CreatePort seeds an existing hardware port.
func (s *Simulator) CreatePort(port asic.PhysID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists[port] = true
}

// SeedLanes seeds the active lane register of a controlling port
// without recording an op.
func (s *Simulator) SeedLanes(port asic.PhysID, lanes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lanes[port] = lanes
}

// FailNext makes the next call with the given name return st.
func (s *Simulator) FailNext(call string, st asic.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[call] = st
}

func (s *Simulator) record(op Op) asic.Status {
	s.ops = append(s.ops, op)
	if st, ok := s.failNext[op.Call]; ok {
		delete(s.failNext, op.Call)
		return st
	}
	return asic.OK
}

func (s *Simulator) PortControlGet(port asic.PhysID, control asic.PortControl) (int, asic.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallPortControlGet, Port: port, Control: int32(control)}); st != asic.OK {
		return 0, st
	}
	if control == asic.PortControlLanes {
		if lanes, ok := s.lanes[port]; ok {
			return lanes, asic.OK
		}
		return 1, asic.OK
	}
	return 0, asic.StatusParam
}

func (s *Simulator) PortControlSet(port asic.PhysID, control asic.PortControl, value int) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallPortControlSet, Port: port, Control: int32(control), Value: value}); st != asic.OK {
		return st
	}
	if control != asic.PortControlLanes {
		return asic.StatusParam
	}
	s.lanes[port] = value
	return asic.OK
}

func (s *Simulator) SwitchControlPortSet(port asic.PhysID, control asic.SwitchControl, value int) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallSwitchControlPortSet, Port: port, Control: int32(control), Value: value}); st != asic.OK {
		return st
	}
	if s.controls[port] == nil {
		s.controls[port] = make(map[asic.SwitchControl]int)
	}
	s.controls[port][control] = value
	return asic.OK
}

func (s *Simulator) L2AddrDeleteByPort(port asic.PhysID, flags int) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Op{Call: CallL2AddrDeleteByPort, Port: port, Value: flags})
}

func (s *Simulator) PortEnableSet(port asic.PhysID, enable bool) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallPortEnableSet, Port: port, Value: boolValue(enable)}); st != asic.OK {
		return st
	}
	s.enabled[port] = enable
	return asic.OK
}

func (s *Simulator) PortSpeedSet(port asic.PhysID, speedMbps int) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallPortSpeedSet, Port: port, Value: speedMbps}); st != asic.OK {
		return st
	}
	s.speeds[port] = speedMbps
	return asic.OK
}

func (s *Simulator) LinkscanModeSet(port asic.PhysID, enable bool) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallLinkscanModeSet, Port: port, Value: boolValue(enable)}); st != asic.OK {
		return st
	}
	s.linkscan[port] = enable
	return asic.OK
}

func (s *Simulator) FlexPortProgram(controlling asic.PhysID, lanes int, remove []asic.PhysID, add []asic.PhysID) asic.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.record(Op{Call: CallFlexPortProgram, Port: controlling, Value: lanes}); st != asic.OK {
		return st
	}
	for _, p := range remove {
		if !s.exists[p] {
			return asic.StatusParam
		}
	}
	for _, p := range remove {
		delete(s.exists, p)
		delete(s.enabled, p)
		delete(s.linkscan, p)
		delete(s.speeds, p)
		delete(s.controls, p)
	}
	for _, p := range add {
		s.exists[p] = true
	}
	s.lanes[controlling] = lanes
	return asic.OK
}

// Ops returns a copy of the recorded op log.
func (s *Simulator) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// OpsNamed returns the recorded ops with the given call name, in order.
func (s *Simulator) OpsNamed(call string) []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Op
	for _, op := range s.ops {
		if op.Call == call {
			out = append(out, op)
		}
	}
	return out
}

// ClearOps drops the recorded op log, keeping register state.
func (s *Simulator) ClearOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

func (s *Simulator) Exists(port asic.PhysID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists[port]
}

func (s *Simulator) PortCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exists)
}

func (s *Simulator) Lanes(port asic.PhysID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lanes, ok := s.lanes[port]; ok {
		return lanes
	}
	return 1
}

func (s *Simulator) Enabled(port asic.PhysID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[port]
}

func (s *Simulator) LinkscanEnabled(port asic.PhysID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkscan[port]
}

// ControlValue returns the last value written for a port trap control,
// defaulting to zero.
func (s *Simulator) ControlValue(port asic.PhysID, control asic.SwitchControl) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls[port][control]
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
