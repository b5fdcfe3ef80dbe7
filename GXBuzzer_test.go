package gxbuzzer

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Gurux/gxcommon-go"
)

// fakeTransport is a console that lives in channels.
type fakeTransport struct {
	rx          chan byte
	readErr     chan error
	interrupted chan struct{}
	once        sync.Once

	mu       sync.Mutex
	written  []byte
	writeErr error
	closed   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		rx:          make(chan byte, 64),
		readErr:     make(chan error, 1),
		interrupted: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadByte() (byte, error) {
	select {
	case <-f.interrupted:
		return 0, ErrInterrupted
	default:
	}
	select {
	case b := <-f.rx:
		return b, nil
	case err := <-f.readErr:
		return 0, err
	case <-f.interrupted:
		return 0, ErrInterrupted
	}
}

func (f *fakeTransport) WriteByte(b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, b)
	return nil
}

func (f *fakeTransport) Interrupt() error {
	f.once.Do(func() { close(f.interrupted) })
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) send(data string) {
	for i := 0; i < len(data); i++ {
		f.rx <- data[i]
	}
}

func (f *fakeTransport) sent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written...)
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// collector records delivered events.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(kind EventKind, param int) {
	c.mu.Lock()
	c.events = append(c.events, Event{Kind: kind, Param: param})
	c.mu.Unlock()
}

func (c *collector) get() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func newTestBuzzer(t *testing.T) (*GXBuzzer, *fakeTransport) {
	t.Helper()
	f := newFakeTransport()
	g := NewGXBuzzerWithTransport(f, "fake")
	t.Cleanup(func() { _ = g.Close() })
	return g, f
}

func TestInitIsSentOnStart(t *testing.T) {
	g, f := newTestBuzzer(t)
	waitFor(t, "init byte", func() bool { return len(f.sent()) == 1 })
	if f.sent()[0] != 'I' {
		t.Fatalf("expected I, got %q", f.sent())
	}
	if !g.IsOpen() || g.State() != gxcommon.MediaStateOpen {
		t.Fatal("session should be open")
	}
	if g.GetName() != "fake" {
		t.Fatalf("unexpected name %s", g.GetName())
	}
}

func TestArmRaisesLocalEvent(t *testing.T) {
	g, f := newTestBuzzer(t)
	c := &collector{}
	g.AddEventHandler(c.handle)
	if err := g.Arm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.get()) != 0 {
		t.Fatal("polled event delivered before Drain")
	}
	if n := g.Drain(); n != 1 {
		t.Fatalf("expected 1 drained event, got %d", n)
	}
	if want := []Event{{Kind: EventArm}}; !reflect.DeepEqual(c.get(), want) {
		t.Fatalf("expected %v, got %v", want, c.get())
	}
	waitFor(t, "arm byte", func() bool { return bytes.Equal(f.sent(), []byte("IA")) })
}

func TestCommandBytes(t *testing.T) {
	g, f := newTestBuzzer(t)
	c := &collector{}
	g.AddEventHandler(c.handle)
	for _, fn := range []func() error{g.Reset, g.FullReset, g.Init} {
		if err := fn(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := g.Send('x', 'y'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, "command bytes", func() bool { return bytes.Equal(f.sent(), []byte("IrRIxy")) })
	g.Drain()
	want := []Event{{Kind: EventPartialReset}, {Kind: EventFullReset}}
	if !reflect.DeepEqual(c.get(), want) {
		t.Fatalf("expected %v, got %v", want, c.get())
	}
	waitFor(t, "byte counter", func() bool { return g.BytesSent() == 6 })
	g.ResetByteCounters()
	if g.BytesSent() != 0 {
		t.Fatalf("expected zero after reset, got %d", g.BytesSent())
	}
}

func TestDecodedEventsArePolled(t *testing.T) {
	g, f := newTestBuzzer(t)
	c := &collector{}
	g.AddEventHandler(c.handle)
	f.send("H1.2.3T35")
	waitFor(t, "decoded events", func() bool { return g.events.pendingCount() == 2 })
	v, ok := g.Version()
	if !ok || v != (FirmwareVersion{Hardware: 1, SoftwareMajor: 2, SoftwareMinor: 3}) {
		t.Fatalf("unexpected version %v %v", v, ok)
	}
	g.Drain()
	want := []Event{{Kind: EventTilt, Param: 3}, {Kind: EventTrigger, Param: 5}}
	if !reflect.DeepEqual(c.get(), want) {
		t.Fatalf("expected %v, got %v", want, c.get())
	}
	if g.BytesReceived() != 9 {
		t.Fatalf("expected 9 received bytes, got %d", g.BytesReceived())
	}
}

func TestThreadedDelivery(t *testing.T) {
	g, f := newTestBuzzer(t)
	c := &collector{}
	g.AddEventHandler(c.handle)
	g.SetDispatchMode(DispatchThreaded)
	if g.DispatchMode() != DispatchThreaded {
		t.Fatalf("expected threaded mode, got %s", g.DispatchMode())
	}
	f.send("7")
	waitFor(t, "threaded event", func() bool { return len(c.get()) == 1 })
	if got := c.get()[0]; got != (Event{Kind: EventTrigger, Param: 7}) {
		t.Fatalf("unexpected event %v", got)
	}
	if n := g.Drain(); n != 0 {
		t.Fatalf("drain in threaded mode delivered %d events", n)
	}
}

func TestHandlerMayIssueCommands(t *testing.T) {
	g, f := newTestBuzzer(t)
	c := &collector{}
	g.AddEventHandler(func(kind EventKind, param int) {
		c.handle(kind, param)
		if kind == EventTrigger {
			_ = g.Arm()
		}
	})
	g.SetDispatchMode(DispatchThreaded)
	f.send("1")
	waitFor(t, "re-arm", func() bool { return len(c.get()) == 2 })
	want := []Event{{Kind: EventTrigger, Param: 1}, {Kind: EventArm}}
	if !reflect.DeepEqual(c.get(), want) {
		t.Fatalf("expected %v, got %v", want, c.get())
	}
	waitFor(t, "arm byte", func() bool { return bytes.Equal(f.sent(), []byte("IA")) })
}

func TestCloseSendsFinalInit(t *testing.T) {
	f := newFakeTransport()
	g := NewGXBuzzerWithTransport(f, "fake")
	var states []gxcommon.MediaState
	g.SetOnMediaStateChange(func(m *GXBuzzer, e gxcommon.MediaStateEventArgs) {
		states = append(states, e.State())
	})
	if err := g.Arm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.sent(); !bytes.Equal(got, []byte("IAI")) {
		t.Fatalf("expected IAI, got %q", got)
	}
	if f.closeCount() != 1 {
		t.Fatalf("expected transport closed once, got %d", f.closeCount())
	}
	if err := g.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
	if f.closeCount() != 1 {
		t.Fatalf("second Close closed the transport again")
	}
	want := []gxcommon.MediaState{gxcommon.MediaStateClosing, gxcommon.MediaStateClosed}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	if g.IsOpen() {
		t.Fatal("session still open")
	}
	if err := g.Arm(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := g.Send('x'); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if g.Drain() != 1 {
		t.Fatal("expected only the Arm raised before Close")
	}
}

func TestReadErrorStopsSession(t *testing.T) {
	g, f := newTestBuzzer(t)
	var (
		mu     sync.Mutex
		errs   []error
		states []gxcommon.MediaState
	)
	g.SetOnError(func(m *GXBuzzer, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	g.SetOnMediaStateChange(func(m *GXBuzzer, e gxcommon.MediaStateEventArgs) {
		mu.Lock()
		states = append(states, e.State())
		mu.Unlock()
	})
	unplugged := errors.New("device unplugged")
	f.readErr <- unplugged
	waitFor(t, "state change", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 1
	})
	if g.IsOpen() {
		t.Fatal("session still open")
	}
	var ioErr *IOError
	if !errors.As(g.Err(), &ioErr) || ioErr.Op != "read" || !errors.Is(g.Err(), unplugged) {
		t.Fatalf("unexpected error %v", g.Err())
	}
	mu.Lock()
	if len(errs) != 1 || !errors.Is(errs[0], unplugged) {
		t.Errorf("error handler got %v", errs)
	}
	if states[0] != gxcommon.MediaStateClosed {
		t.Errorf("expected Closed, got %v", states[0])
	}
	mu.Unlock()
	if err := g.FullReset(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if f.closeCount() != 1 {
		t.Fatalf("expected transport closed once, got %d", f.closeCount())
	}
}

func TestWriteErrorStopsSession(t *testing.T) {
	f := newFakeTransport()
	f.writeErr = errors.New("write refused")
	g := NewGXBuzzerWithTransport(f, "fake")
	defer g.Close()
	waitFor(t, "session stop", func() bool { return !g.IsOpen() })
	var ioErr *IOError
	waitFor(t, "recorded error", func() bool { return g.Err() != nil })
	if !errors.As(g.Err(), &ioErr) || ioErr.Op != "write" {
		t.Fatalf("unexpected error %v", g.Err())
	}
}

func TestRemovedHandlerIsNotCalled(t *testing.T) {
	g, _ := newTestBuzzer(t)
	c := &collector{}
	id := g.NewHandlerID()
	g.SetEventHandler(id, c.handle)
	g.RemoveEventHandler(id)
	_ = g.Arm()
	g.Drain()
	if len(c.get()) != 0 {
		t.Fatalf("removed handler called: %v", c.get())
	}
}
