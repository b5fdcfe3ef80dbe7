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
	"sync"
)

type registration struct {
	id HandlerID
	fn EventHandler
}

// eventDispatcher holds the handler registry and the pending events.
// Handlers are always called without holding mu, on a copy of the registry,
// so a handler may register handlers or issue commands.
type eventDispatcher struct {
	mu       sync.Mutex
	lastID   HandlerID
	handlers []registration
	pending  []Event
	threaded bool
	// flushing is set while a switch to threaded mode empties pending.
	flushing bool
}

func (d *eventDispatcher) newID() HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastID++
	return d.lastID
}

// set replaces the callback of id in place or appends a new registration.
func (d *eventDispatcher) set(id HandlerID, fn EventHandler) {
	if id == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.handlers {
		if d.handlers[i].id == id {
			d.handlers[i].fn = fn
			return
		}
	}
	d.handlers = append(d.handlers, registration{id: id, fn: fn})
}

func (d *eventDispatcher) remove(id HandlerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.handlers {
		if d.handlers[i].id == id {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

func (d *eventDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

func (d *eventDispatcher) snapshotLocked() []EventHandler {
	ret := make([]EventHandler, 0, len(d.handlers))
	for _, h := range d.handlers {
		if h.fn != nil {
			ret = append(ret, h.fn)
		}
	}
	return ret
}

func deliver(events []Event, handlers []EventHandler) {
	for _, e := range events {
		for _, h := range handlers {
			h(e.Kind, e.Param)
		}
	}
}

// raise queues e, or delivers it right away in threaded mode.
func (d *eventDispatcher) raise(e Event) {
	d.mu.Lock()
	if !d.threaded {
		d.pending = append(d.pending, e)
		d.mu.Unlock()
		return
	}
	handlers := d.snapshotLocked()
	d.mu.Unlock()
	deliver([]Event{e}, handlers)
}

// drain delivers every pending event and returns their count.
// It does nothing in threaded mode or while a mode switch is flushing.
func (d *eventDispatcher) drain() int {
	d.mu.Lock()
	if d.threaded || d.flushing || len(d.pending) == 0 {
		d.mu.Unlock()
		return 0
	}
	events := d.pending
	d.pending = nil
	handlers := d.snapshotLocked()
	d.mu.Unlock()
	deliver(events, handlers)
	return len(events)
}

func (d *eventDispatcher) mode() DispatchMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.threaded {
		return DispatchThreaded
	}
	return DispatchPolled
}

// setMode switches the dispatch mode. Switching to threaded mode delivers
// the pending events before returning. Events raised during that flush are
// queued behind it, so threaded delivery starts only once pending is empty.
func (d *eventDispatcher) setMode(m DispatchMode) {
	d.mu.Lock()
	if m != DispatchThreaded {
		d.threaded = false
		//Cancels a switch that is still flushing.
		d.flushing = false
		d.mu.Unlock()
		return
	}
	if d.threaded || d.flushing {
		d.mu.Unlock()
		return
	}
	d.flushing = true
	for d.flushing && len(d.pending) != 0 {
		events := d.pending
		d.pending = nil
		handlers := d.snapshotLocked()
		d.mu.Unlock()
		deliver(events, handlers)
		d.mu.Lock()
	}
	if d.flushing {
		d.threaded = true
		d.flushing = false
	}
	d.mu.Unlock()
}

func (d *eventDispatcher) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
