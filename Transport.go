package gxbuzzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/Gurux/gxcommon-go"
)

// Line settings of the buzzer console. They are fixed by the hardware.
const (
	BaudRate gxcommon.BaudRate = 38400
	DataBits                   = 8
)

var (
	Parity   = gxcommon.ParityNone
	StopBits = gxcommon.StopBitsOne
)

// Transport is a byte oriented duplex link to the console.
type Transport interface {
	// ReadByte blocks until one byte is received or the link fails.
	io.ByteReader
	// WriteByte blocks until the byte is sent or the link fails.
	io.ByteWriter
	// Interrupt makes a blocked and every later ReadByte return ErrInterrupted.
	// Writes are not affected.
	Interrupt() error
	Close() error
}

// SerialPort is the Transport used with real hardware.
type SerialPort struct {
	name string
	s    port
}

// OpenSerialPort opens the named serial port with the console line settings.
// Errors are of type *ConnectionError.
func OpenSerialPort(name string) (*SerialPort, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ConnectionError{Port: name, Err: ErrNoPort}
	}
	sp := &SerialPort{name: name}
	if err := openPort(&sp.s, name); err != nil {
		return nil, &ConnectionError{Port: name, Err: err}
	}
	return sp, nil
}

// GetPortNames returns list of available serial ports.
func GetPortNames() ([]string, error) {
	return getPortNames()
}

// ReadByte implements io.ByteReader.
func (sp *SerialPort) ReadByte() (byte, error) {
	return sp.s.readByte()
}

// WriteByte implements io.ByteWriter.
func (sp *SerialPort) WriteByte(b byte) error {
	return sp.s.writeByte(b)
}

// Interrupt implements Transport.
func (sp *SerialPort) Interrupt() error {
	return sp.s.interrupt()
}

// Close implements Transport.
func (sp *SerialPort) Close() error {
	return sp.s.close()
}

// Name returns the port name.
func (sp *SerialPort) Name() string {
	return sp.name
}

// String returns the port name and line settings.
func (sp *SerialPort) String() string {
	return fmt.Sprintf("%s %s %d %s %s", sp.name, BaudRate, DataBits, Parity, StopBits)
}
