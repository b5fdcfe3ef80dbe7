package gxbuzzer

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrorEventHandler is called when the session fails.
type ErrorEventHandler func(m *GXBuzzer, err error)

// MediaStateHandler is called when the session state changes.
type MediaStateHandler func(m *GXBuzzer, e gxcommon.MediaStateEventArgs)

// TraceEventHandler is called with the trace messages allowed by the trace level.
type TraceEventHandler func(m *GXBuzzer, e gxcommon.TraceEventArgs)

// GXBuzzer is a session with a NiSaCon buzzer console.
type GXBuzzer struct {
	name string
	t    Transport

	mu sync.RWMutex
	wg sync.WaitGroup

	// stop is closed once when the session stops.
	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	closeErr  error

	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel
	state      gxcommon.MediaState
	// First runtime I/O error.
	err        error
	version    FirmwareVersion
	hasVersion bool

	//Called when the Media state is changed.
	onState MediaStateHandler

	//Called when the Media is sending or receiving data.
	onTrace TraceEventHandler

	//Called when the session fails.
	onErr ErrorEventHandler

	outbound *byteQueue
	inbound  *byteQueue
	events   eventDispatcher

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64

	// Printer for localized messages.
	p *message.Printer
}

func newGXBuzzer(name string) *GXBuzzer {
	g := &GXBuzzer{
		name:     name,
		stop:     make(chan struct{}),
		state:    gxcommon.MediaStateClosed,
		outbound: newByteQueue(),
		inbound:  newByteQueue(),
	}
	g.Localize(language.AmericanEnglish)
	return g
}

// NewGXBuzzer opens the serial port and initializes the console.
func NewGXBuzzer(port string) (*GXBuzzer, error) {
	cfg := DefaultConfig()
	cfg.Port = port
	return NewGXBuzzerFromConfig(cfg)
}

// NewGXBuzzerFromConfig opens the configured serial port and initializes
// the console.
func NewGXBuzzerFromConfig(cfg *Config) (*GXBuzzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sp, err := OpenSerialPort(cfg.Port)
	if err != nil {
		return nil, err
	}
	g := newGXBuzzer(cfg.Port)
	g.traceLevel, _ = cfg.TraceLevel()
	tag, _ := cfg.LanguageTag()
	g.Localize(tag)
	g.events.setMode(cfg.DispatchMode())
	g.start(sp)
	return g, nil
}

// NewGXBuzzerWithTransport starts a session over an already open transport.
// The session owns t and closes it in Close.
func NewGXBuzzerWithTransport(t Transport, name string) *GXBuzzer {
	g := newGXBuzzer(name)
	g.start(t)
	return g
}

func (g *GXBuzzer) start(t Transport) {
	g.t = t
	g.state = gxcommon.MediaStateOpen
	g.wg.Add(3)
	go g.writer()
	go g.reader()
	go g.decoder()
	_ = g.Init()
}

// Init sends the initialize command. The console answers with its version.
func (g *GXBuzzer) Init() error {
	return g.command(cmdInit, 0, false)
}

// Arm sends the arm command and raises EventArm.
func (g *GXBuzzer) Arm() error {
	return g.command(cmdArm, EventArm, true)
}

// Reset blocks the last pressed buzzer, resets the others and raises
// EventPartialReset.
func (g *GXBuzzer) Reset() error {
	return g.command(cmdReset, EventPartialReset, true)
}

// FullReset resets every buzzer and raises EventFullReset.
func (g *GXBuzzer) FullReset() error {
	return g.command(cmdFullReset, EventFullReset, true)
}

// Send queues raw bytes for the console.
func (g *GXBuzzer) Send(data ...byte) error {
	if g.stopped() {
		return ErrClosed
	}
	g.outbound.Append(data...)
	return nil
}

// command queues b. Local events are raised right away. They tell what was
// requested, not what the console did.
func (g *GXBuzzer) command(b byte, kind EventKind, raise bool) error {
	if g.stopped() {
		return ErrClosed
	}
	g.outbound.Append(b)
	if raise {
		g.raise(Event{Kind: kind})
	}
	return nil
}

// NewHandlerID allocates a handler identity for SetEventHandler.
func (g *GXBuzzer) NewHandlerID() HandlerID {
	return g.events.newID()
}

// AddEventHandler registers fn under a new identity.
func (g *GXBuzzer) AddEventHandler(fn EventHandler) HandlerID {
	id := g.events.newID()
	g.events.set(id, fn)
	return id
}

// SetEventHandler replaces the callback of id, or registers it when id is new.
// A replaced handler keeps its position in the call order.
func (g *GXBuzzer) SetEventHandler(id HandlerID, fn EventHandler) {
	g.events.set(id, fn)
}

// RemoveEventHandler removes the registration of id if it exists.
func (g *GXBuzzer) RemoveEventHandler(id HandlerID) {
	g.events.remove(id)
}

// SetDispatchMode selects how events are delivered. Switching to
// DispatchThreaded first delivers every queued event.
func (g *GXBuzzer) SetDispatchMode(mode DispatchMode) {
	g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.dispatch_mode", mode))
	g.events.setMode(mode)
}

// DispatchMode returns the event delivery mode.
func (g *GXBuzzer) DispatchMode() DispatchMode {
	return g.events.mode()
}

// Drain delivers the queued events in polled mode and returns their count.
func (g *GXBuzzer) Drain() int {
	return g.events.drain()
}

func (g *GXBuzzer) raise(e Event) {
	if g.traceable(gxcommon.TraceTypesInfo) {
		g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.event", e))
	}
	g.events.raise(e)
}

func (g *GXBuzzer) writer() {
	defer g.wg.Done()
	for {
		ch := g.outbound.Signal()
		if err := g.flush(); err != nil {
			g.fail(&IOError{Op: "write", Err: err})
			return
		}
		select {
		case <-ch:
		case <-g.stop:
			//Send what was queued before the stop, like the final Init.
			if err := g.flush(); err != nil {
				g.tracef(gxcommon.TraceTypesError, "TX failed: %v", err)
			}
			return
		}
	}
}

// flush writes every queued byte in order. The queue lock is not held
// while writing.
func (g *GXBuzzer) flush() error {
	data := g.outbound.Take()
	if len(data) == 0 {
		return nil
	}
	g.traceBytes(gxcommon.TraceTypesSent, "TX", data)
	for _, b := range data {
		if err := g.t.WriteByte(b); err != nil {
			return err
		}
		g.bytesSent.Add(1)
	}
	return nil
}

func (g *GXBuzzer) reader() {
	defer g.wg.Done()
	for {
		b, err := g.t.ReadByte()
		if err != nil {
			if !g.stopped() {
				g.fail(&IOError{Op: "read", Err: err})
			}
			return
		}
		g.bytesReceived.Add(1)
		g.traceBytes(gxcommon.TraceTypesReceived, "RX", []byte{b})
		g.inbound.Append(b)
		if g.stopped() {
			return
		}
	}
}

func (g *GXBuzzer) decoder() {
	defer g.wg.Done()
	for {
		ch := g.inbound.Signal()
		g.decode()
		select {
		case <-ch:
		case <-g.stop:
			return
		}
	}
}

// decode consumes the complete frames of the inbound queue. Incomplete
// frames stay queued until the rest arrives.
func (g *GXBuzzer) decode() {
	var (
		events  []Event
		version *FirmwareVersion
	)
	g.inbound.Consume(func(buf []byte) int {
		var n int
		events, version, n = decodeAll(buf)
		return n
	})
	if version != nil {
		g.mu.Lock()
		g.version = *version
		g.hasVersion = true
		g.mu.Unlock()
		g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.firmware", version))
	}
	for _, e := range events {
		g.raise(e)
	}
}

func (g *GXBuzzer) stopped() bool {
	select {
	case <-g.stop:
		return true
	default:
		return false
	}
}

// halt stops the workers. A blocked read is released by Interrupt.
func (g *GXBuzzer) halt() {
	g.stopOnce.Do(func() {
		close(g.stop)
		if err := g.t.Interrupt(); err != nil {
			g.tracef(gxcommon.TraceTypesError, "interrupt failed: %v", err)
		}
	})
}

// fail stops the session after a runtime I/O error.
func (g *GXBuzzer) fail(err error) {
	g.mu.Lock()
	if g.err == nil {
		g.err = err
	}
	g.mu.Unlock()
	g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.connection_failed", err))
	g.errorf(err)
	g.halt()
	g.statef(gxcommon.MediaStateClosed)
}

// Close sends a final Init, stops the workers, waits for them and closes
// the transport. Calling Close again returns the first result.
func (g *GXBuzzer) Close() error {
	g.closeOnce.Do(func() {
		if !g.stopped() {
			g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.closing", g.name))
			g.statef(gxcommon.MediaStateClosing)
			g.outbound.Append(cmdInit)
		}
		g.halt()
		g.wg.Wait()
		g.closeErr = g.t.Close()
		g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.closed", g.name))
		g.statef(gxcommon.MediaStateClosed)
	})
	return g.closeErr
}

// String returns the port name and line settings.
func (g *GXBuzzer) String() string {
	return fmt.Sprintf("%s %s %d %s %s", g.name, BaudRate, DataBits, StopBits, Parity)
}

// GetName returns the port name.
func (g *GXBuzzer) GetName() string {
	return g.name
}

// IsOpen returns true until the session is closed or fails.
func (g *GXBuzzer) IsOpen() bool {
	return !g.stopped()
}

// State returns the media state.
func (g *GXBuzzer) State() gxcommon.MediaState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Err returns the I/O error that stopped the session, or nil.
func (g *GXBuzzer) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Version returns the firmware version reported by the console.
// ok is false until the console has answered an Init.
func (g *GXBuzzer) Version() (version FirmwareVersion, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version, g.hasVersion
}

// BytesSent returns the number of bytes written to the console.
func (g *GXBuzzer) BytesSent() uint64 {
	return g.bytesSent.Load()
}

// BytesReceived returns the number of bytes read from the console.
func (g *GXBuzzer) BytesReceived() uint64 {
	return g.bytesReceived.Load()
}

// ResetByteCounters zeroes the sent and received counters.
func (g *GXBuzzer) ResetByteCounters() {
	g.bytesSent.Store(0)
	g.bytesReceived.Store(0)
}

// GetTrace returns the trace level.
func (g *GXBuzzer) GetTrace() gxcommon.TraceLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.traceLevel
}

// SetTrace sets the trace level.
func (g *GXBuzzer) SetTrace(traceLevel gxcommon.TraceLevel) error {
	g.mu.Lock()
	g.traceLevel = traceLevel
	g.mu.Unlock()
	return nil
}

// SetOnError sets the handler called when the session fails.
// The handler runs on a worker goroutine and must not call Close.
func (g *GXBuzzer) SetOnError(value ErrorEventHandler) {
	g.mu.Lock()
	g.onErr = value
	g.mu.Unlock()
}

// SetOnMediaStateChange sets the handler called when the state changes.
func (g *GXBuzzer) SetOnMediaStateChange(value MediaStateHandler) {
	g.mu.Lock()
	g.onState = value
	g.mu.Unlock()
}

// SetOnTrace sets the trace handler.
func (g *GXBuzzer) SetOnTrace(value TraceEventHandler) {
	g.mu.Lock()
	g.onTrace = value
	g.mu.Unlock()
}

func (g *GXBuzzer) errorf(err error) {
	g.mu.RLock()
	cb := g.onErr
	g.mu.RUnlock()
	if cb != nil {
		cb(g, err)
	}
}

func (g *GXBuzzer) traceable(traceType gxcommon.TraceTypes) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.onTrace != nil && !(int(g.traceLevel) < int(traceType))
}

func (g *GXBuzzer) trace(traceType gxcommon.TraceTypes, message string) {
	g.mu.RLock()
	trace := !(int(g.traceLevel) < int(traceType))
	cb := g.onTrace
	g.mu.RUnlock()
	if cb != nil && trace {
		p := gxcommon.NewTraceEventArgs(traceType, message, "")
		cb(g, *p)
	}
}

func (g *GXBuzzer) tracef(traceType gxcommon.TraceTypes, fmtStr string, a ...any) {
	if g.traceable(traceType) {
		g.trace(traceType, fmt.Sprintf(fmtStr, a...))
	}
}

func (g *GXBuzzer) traceBytes(traceType gxcommon.TraceTypes, prefix string, data []byte) {
	if !g.traceable(traceType) {
		return
	}
	str, err := gxcommon.ToString(data)
	if err != nil {
		g.tracef(gxcommon.TraceTypesError, "%s failed: %v", prefix, err)
		return
	}
	g.trace(traceType, prefix+": "+str)
}

// statef changes the state and notifies the state handler.
// Repeated states are not reported.
func (g *GXBuzzer) statef(state gxcommon.MediaState) {
	g.mu.Lock()
	if g.state == state {
		g.mu.Unlock()
		return
	}
	g.state = state
	cb := g.onState
	g.mu.Unlock()
	if cb != nil {
		cb(g, *gxcommon.NewMediaStateEventArgs(state))
	}
}
