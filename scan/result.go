package scan

import (
	"fmt"
	"net"
	"sort"
)

type PortState uint8

const (
	PortUnknown PortState = iota
	PortOpen
	PortClosed
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "OPEN"
	case PortClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// ResultTable holds one final state per requested port. It is pre-sized at
// scan start and addressed by port index, so concurrent workers each write
// only their own slot and never contend. Ports are kept in ascending order
// regardless of the order probes complete in.
type ResultTable struct {
	host   net.IP
	ports  []int
	states []PortState
}

func NewResultTable(host net.IP, ports []int) *ResultTable {
	return &ResultTable{
		host:   host,
		ports:  ports,
		states: make([]PortState, len(ports)),
	}
}

func (t *ResultTable) Host() net.IP {
	return t.host
}

// Ports returns the requested ports in ascending order.
func (t *ResultTable) Ports() []int {
	return t.ports
}

func (t *ResultTable) Len() int {
	return len(t.ports)
}

func (t *ResultTable) set(slot int, state PortState) {
	t.states[slot] = state
}

// StateOf reports the final state for a port, or PortUnknown if the port
// was not part of the scan.
func (t *ResultTable) StateOf(port int) PortState {
	i := sort.SearchInts(t.ports, port)
	if i >= len(t.ports) || t.ports[i] != port {
		return PortUnknown
	}
	return t.states[i]
}

// Open returns every open port in ascending order.
func (t *ResultTable) Open() []int {
	var open []int
	for i, state := range t.states {
		if state == PortOpen {
			open = append(open, t.ports[i])
		}
	}
	return open
}

func (t *ResultTable) String() string {

	text := fmt.Sprintf("Scan results for host %s\n", t.host.String())

	open := t.Open()

	if len(open) == 0 {
		return text + fmt.Sprintf("\tNo open ports out of %d scanned\n", t.Len())
	}

	text = fmt.Sprintf(
		"%s\t%s\t%s\t%s\n",
		text,
		"PORT",
		"STATE",
		"SERVICE",
	)

	for _, port := range open {
		text = fmt.Sprintf(
			"%s\t%s\t%s\t%s\n",
			text,
			pad(fmt.Sprintf("%d/tcp", port), 10),
			pad("OPEN", 10),
			DescribePort(port),
		)
	}

	return fmt.Sprintf("%s\t%d ports scanned, %d open\n", text, t.Len(), len(open))
}

func pad(input string, length int) string {
	for len(input) < length {
		input += " "
	}
	return input
}
