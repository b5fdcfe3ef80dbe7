//go:build freebsd || openbsd || netbsd

package gxbuzzer

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
)

// pollTimeout bounds how long a read waits before it checks for interrupt.
const pollTimeout = 100 * time.Millisecond

type port struct {
	p           serial.Port
	interrupted atomic.Bool
}

// getPortNames returns a list of available serial port device paths on BSD.
func getPortNames() ([]string, error) {
	patterns := []string{
		"/dev/cuaU*",
		"/dev/cuau*",
		"/dev/ttyU*",
		"/dev/ttyu*",
		"/dev/dtyU*",
	}
	var devices []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		devices = append(devices, matches...)
	}
	return devices, nil
}

func openPort(p *port, name string) error {
	sp, err := serial.Open(&serial.Config{
		Address:  name,
		BaudRate: int(BaudRate),
		DataBits: DataBits,
		StopBits: 1,
		Parity:   "N",
		Timeout:  pollTimeout,
	})
	if err != nil {
		return err
	}
	p.p = sp
	return nil
}

func (p *port) readByte() (byte, error) {
	if p.p == nil {
		return 0, errors.New("serial port not open")
	}
	var buf [1]byte
	for {
		if p.interrupted.Load() {
			return 0, ErrInterrupted
		}
		n, err := p.p.Read(buf[:])
		if err == serial.ErrTimeout {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return buf[0], nil
		}
	}
}

func (p *port) writeByte(b byte) error {
	if p.p == nil {
		return errors.New("serial port not open")
	}
	_, err := p.p.Write([]byte{b})
	return err
}

func (p *port) interrupt() error {
	p.interrupted.Store(true)
	return nil
}

func (p *port) close() error {
	if p.p == nil {
		return nil
	}
	sp := p.p
	p.p = nil
	return sp.Close()
}
