package gxbuzzer

import (
	"reflect"
	"testing"
)

type recorder struct {
	calls []string
}

func (r *recorder) handler(name string) EventHandler {
	return func(kind EventKind, param int) {
		r.calls = append(r.calls, name+":"+Event{Kind: kind, Param: param}.String())
	}
}

func TestSetEventHandlerReplacesInPlace(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	a := d.newID()
	b := d.newID()
	d.set(a, r.handler("a1"))
	d.set(b, r.handler("b"))
	d.set(a, r.handler("a2"))
	if d.count() != 2 {
		t.Fatalf("expected 2 handlers, got %d", d.count())
	}
	d.raise(Event{Kind: EventArm})
	if n := d.drain(); n != 1 {
		t.Fatalf("expected 1 drained event, got %d", n)
	}
	want := []string{"a2:Arm 0", "b:Arm 0"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("expected %v, got %v", want, r.calls)
	}
}

func TestDrainOrder(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	d.set(d.newID(), r.handler("a"))
	d.set(d.newID(), r.handler("b"))
	d.raise(Event{Kind: EventTrigger, Param: 1})
	d.raise(Event{Kind: EventTilt, Param: 2})
	d.drain()
	want := []string{"a:Trigger 1", "b:Trigger 1", "a:Tilt 2", "b:Tilt 2"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("expected %v, got %v", want, r.calls)
	}
	if n := d.drain(); n != 0 {
		t.Fatalf("expected empty drain, got %d", n)
	}
}

func TestRemoveEventHandler(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	a := d.newID()
	d.set(a, r.handler("a"))
	d.remove(a)
	d.remove(a)
	d.remove(HandlerID(1234))
	d.raise(Event{Kind: EventArm})
	d.drain()
	if len(r.calls) != 0 {
		t.Fatalf("removed handler was called: %v", r.calls)
	}
}

func TestNilCallbackIsSkipped(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	d.set(d.newID(), nil)
	d.set(d.newID(), r.handler("a"))
	d.raise(Event{Kind: EventFullReset})
	d.drain()
	if len(r.calls) != 1 {
		t.Fatalf("expected 1 call, got %v", r.calls)
	}
}

func TestZeroHandlerIDIsIgnored(t *testing.T) {
	var d eventDispatcher
	d.set(0, func(EventKind, int) {})
	if d.count() != 0 {
		t.Fatalf("expected no handlers, got %d", d.count())
	}
	if id := d.newID(); id == 0 {
		t.Fatal("newID returned zero")
	}
}

func TestSwitchToThreadedFlushesInOrder(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	d.set(d.newID(), r.handler("a"))
	for i := 0; i < 5; i++ {
		d.raise(Event{Kind: EventTrigger, Param: i})
	}
	d.setMode(DispatchThreaded)
	if len(r.calls) != 5 {
		t.Fatalf("expected 5 flushed events, got %v", r.calls)
	}
	for i, c := range r.calls {
		want := "a:" + Event{Kind: EventTrigger, Param: i}.String()
		if c != want {
			t.Errorf("call %d: expected %s, got %s", i, want, c)
		}
	}
	if d.mode() != DispatchThreaded {
		t.Fatalf("expected threaded mode, got %s", d.mode())
	}
	d.raise(Event{Kind: EventArm})
	if len(r.calls) != 6 {
		t.Fatalf("threaded event was not delivered right away: %v", r.calls)
	}
	if n := d.drain(); n != 0 {
		t.Fatalf("drain in threaded mode delivered %d events", n)
	}
}

func TestEventsRaisedDuringFlushKeepOrder(t *testing.T) {
	var d eventDispatcher
	var got []Event
	d.set(d.newID(), func(kind EventKind, param int) {
		got = append(got, Event{Kind: kind, Param: param})
		if kind == EventTrigger && param == 1 {
			d.raise(Event{Kind: EventTrigger, Param: 3})
		}
	})
	d.raise(Event{Kind: EventTrigger, Param: 1})
	d.raise(Event{Kind: EventTrigger, Param: 2})
	d.setMode(DispatchThreaded)
	want := []Event{
		{Kind: EventTrigger, Param: 1},
		{Kind: EventTrigger, Param: 2},
		{Kind: EventTrigger, Param: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if d.pendingCount() != 0 {
		t.Fatalf("expected no pending events, got %d", d.pendingCount())
	}
}

func TestSwitchBackToPolledQueues(t *testing.T) {
	var d eventDispatcher
	r := &recorder{}
	d.set(d.newID(), r.handler("a"))
	d.setMode(DispatchThreaded)
	d.setMode(DispatchPolled)
	d.raise(Event{Kind: EventArm})
	if len(r.calls) != 0 {
		t.Fatalf("polled event delivered before drain: %v", r.calls)
	}
	if d.pendingCount() != 1 {
		t.Fatalf("expected 1 pending event, got %d", d.pendingCount())
	}
}

func TestHandlerMayRegisterHandlers(t *testing.T) {
	var d eventDispatcher
	calls := 0
	d.set(d.newID(), func(EventKind, int) {
		calls++
		d.set(d.newID(), func(EventKind, int) { calls++ })
	})
	d.raise(Event{Kind: EventArm})
	d.drain()
	if calls != 1 {
		t.Fatalf("handler added during delivery must wait for the next event, got %d calls", calls)
	}
	if d.count() != 2 {
		t.Fatalf("expected 2 handlers, got %d", d.count())
	}
}
