// Package asic defines the call surface of the switching ASIC driver.
//
// Every call is a blocking round-trip into the vendor SDK and returns
// an integer status. The engine treats the SDK as opaque: it never
// retries a failed call and never interprets a status beyond OK or not.
package asic

import (
	"errors"
	"fmt"

	"github.com/packetplane/switchd/pkg/log"
)

// PhysID is the physical (hardware) port number used to address driver
// calls. It is distinct from the logical state.PortID; the platform
// mapping ties the two together.
type PhysID int32

// Status is the driver's return code. Zero is success; failures are
// negative, mirroring the vendor convention.
type Status int32

const (
	OK            Status = 0
	StatusParam   Status = -4
	StatusFail    Status = -13
	StatusUnavail Status = -16
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case StatusParam:
		return "invalid parameter"
	case StatusFail:
		return "operation failed"
	case StatusUnavail:
		return "feature unavailable"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}

// PortControl selects a per-port control register.
type PortControl int32

const (
	// PortControlLanes is the active lane count register of a
	// controlling port.
	PortControlLanes PortControl = iota + 1
)

// SwitchControl selects a port-scoped protocol trapping control. These
// controls are not preserved by the flexport transaction and must be
// toggled around it explicitly.
type SwitchControl int32

const (
	SwitchControlARPRequestToCPU SwitchControl = iota + 1
	SwitchControlARPReplyToCPU
	SwitchControlDHCPPacketDrop
	SwitchControlDHCPPacketToCPU
	SwitchControlNDPacketToCPU
)

func (c SwitchControl) String() string {
	switch c {
	case SwitchControlARPRequestToCPU:
		return "ARP request trapping"
	case SwitchControlARPReplyToCPU:
		return "ARP reply trapping"
	case SwitchControlDHCPPacketDrop:
		return "DHCP dropping"
	case SwitchControlDHCPPacketToCPU:
		return "DHCP request trapping"
	case SwitchControlNDPacketToCPU:
		return "ND trapping"
	default:
		return fmt.Sprintf("SwitchControl(%d)", int32(c))
	}
}

// L2 address delete flags, passed to L2AddrDeleteByPort.
const (
	L2DeleteStatic  = 0x1
	L2DeletePending = 0x2
)

// SDK is the synchronous driver call surface consumed by the engine.
type SDK interface {
	// PortControlGet reads a per-port control register.
	PortControlGet(port PhysID, control PortControl) (int, Status)
	// PortControlSet writes a per-port control register.
	PortControlSet(port PhysID, control PortControl, value int) Status
	// SwitchControlPortSet toggles a port-scoped trap control.
	SwitchControlPortSet(port PhysID, control SwitchControl, value int) Status
	// L2AddrDeleteByPort flushes address-table entries pointing at the
	// port, per the given flags.
	L2AddrDeleteByPort(port PhysID, flags int) Status
	// PortEnableSet administratively enables or disables the port.
	PortEnableSet(port PhysID, enable bool) Status
	// PortSpeedSet programs the port speed in Mbps.
	PortSpeedSet(port PhysID, speedMbps int) Status
	// LinkscanModeSet enables or disables link-state change monitoring
	// for the port.
	LinkscanModeSet(port PhysID, enable bool) Status
	// FlexPortProgram commits one remove/add transaction against the
	// lane resource of the controlling port: the removed ports cease to
	// exist and the added ports are created at the given lane count.
	FlexPortProgram(controlling PhysID, lanes int, remove []PhysID, add []PhysID) Status
}

// CallError is a failed driver call: the status code plus a description
// of the operation, including the offending port.
type CallError struct {
	Status Status
	Op     string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// CheckError converts a driver status into an error. Failures are
// logged before returning so that every hardware failure is visible
// even when the caller unwinds.
func CheckError(st Status, opFormat string, args ...interface{}) error {
	if st == OK {
		return nil
	}
	op := fmt.Sprintf(opFormat, args...)
	metricCallFailuresTotal.Inc()
	log.Logger.Errorw("hardware call failed", "op", op, "status", st.String(), "code", int32(st))
	return &CallError{Status: st, Op: op}
}

// IsCallError reports whether err (or anything it wraps) is a failed
// hardware call.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}
