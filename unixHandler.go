//go:build linux || darwin

package gxbuzzer

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

type port struct {
	fd int
	// Wake pipe. A byte written to wakeW makes every pending and later
	// read return ErrInterrupted.
	wakeR int
	wakeW int
}

func (p *port) isOpen() bool {
	return p.fd > 0
}

func (p *port) ensureOpen() error {
	if p == nil || !p.isOpen() {
		return errors.New("serial port not open")
	}
	return nil
}

func (p *port) readByte() (byte, error) {
	if err := p.ensureOpen(); err != nil {
		return 0, err
	}
	pfds := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.wakeR), Events: unix.POLLIN},
	}
	var buf [1]byte
	for {
		_, err := unix.Poll(pfds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("poll failed: %w", err)
		}
		if (pfds[1].Revents & unix.POLLIN) != 0 {
			return 0, ErrInterrupted
		}
		if (pfds[0].Revents & unix.POLLIN) == 0 {
			if (pfds[0].Revents & (unix.POLLERR | unix.POLLHUP | unix.POLLNVAL)) != 0 {
				return 0, errors.New("serial device hung up")
			}
			continue
		}
		n, err := unix.Read(p.fd, buf[:])
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return buf[0], nil
	}
}

func (p *port) writeByte(b byte) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	buf := [1]byte{b}
	for {
		n, err := unix.Write(p.fd, buf[:])
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}
	}
}

func (p *port) interrupt() error {
	if p.wakeW <= 0 {
		return nil
	}
	_, err := unix.Write(p.wakeW, []byte{0})
	if err == unix.EAGAIN {
		//Pipe is already full, reader is woken anyway.
		return nil
	}
	return err
}

func (p *port) close() error {
	if p == nil {
		return nil
	}
	if p.wakeR > 0 {
		_ = unix.Close(p.wakeR)
		p.wakeR = 0
	}
	if p.wakeW > 0 {
		_ = unix.Close(p.wakeW)
		p.wakeW = 0
	}
	if p.fd > 0 {
		fd := p.fd
		p.fd = 0
		return unix.Close(fd)
	}
	return nil
}

// openWakePipe creates the non-blocking pipe used by interrupt.
func openWakePipe(p *port) error {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return err
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return err
		}
	}
	p.wakeR, p.wakeW = fds[0], fds[1]
	return nil
}
