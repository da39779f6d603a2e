// Package serialport wraps go.bug.st/serial to give pkg/target a concrete
// io.ReadWriter, plus the port enumeration the CLI front-ends need for
// --list-ports and --port-serial-no.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrPortNotFound is returned by OpenBySerialNumber when no attached port
// reports the requested USB serial number.
type ErrPortNotFound struct {
	SerialNumber string
}

func (e *ErrPortNotFound) Error() string {
	return fmt.Sprintf("no serial port found with USB serial number %q", e.SerialNumber)
}

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Path         string
	SerialNumber string
}

// Port wraps a go.bug.st/serial handle as an io.ReadWriter.
type Port struct {
	port serial.Port
}

// Open opens path at baud in 8-N-1 mode. A negative timeout means blocking
// reads (Read never returns until at least one byte arrives); a
// non-negative timeout is passed through as the port's read timeout.
func Open(path string, baud int, timeout time.Duration) (*Port, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	readTimeout := timeout
	if timeout < 0 {
		readTimeout = -1
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	return &Port{port: port}, nil
}

// OpenBySerialNumber enumerates attached ports, opens the one whose USB
// serial number matches serialNumber, and returns ErrPortNotFound if none
// does.
func OpenBySerialNumber(serialNumber string, baud int, timeout time.Duration) (*Port, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	for _, p := range ports {
		if p.SerialNumber == serialNumber {
			return Open(p.Path, baud, timeout)
		}
	}
	return nil, &ErrPortNotFound{SerialNumber: serialNumber}
}

// ListPorts enumerates attached serial ports along with their USB serial
// number, where available.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{Path: d.Name, SerialNumber: d.SerialNumber})
	}
	return out, nil
}

// Read implements io.Reader.
func (p *Port) Read(buf []byte) (int, error) { return p.port.Read(buf) }

// Write implements io.Writer.
func (p *Port) Write(buf []byte) (int, error) { return p.port.Write(buf) }

// Close releases the underlying serial handle.
func (p *Port) Close() error { return p.port.Close() }

// Flush discards any bytes buffered for output but not yet written; bytes
// buffered on the input side are left in place.
func (p *Port) Flush() error { return p.port.ResetOutputBuffer() }
