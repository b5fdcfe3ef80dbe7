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

// byteQueue is an unbounded FIFO of bytes shared by one producer and one
// consumer. Every Append closes the current wait channel, so a consumer
// that fetched the channel before inspecting the queue never misses data.
type byteQueue struct {
	mu   sync.Mutex
	buf  []byte
	wait chan struct{}
}

func newByteQueue() *byteQueue {
	return &byteQueue{wait: make(chan struct{})}
}

// Append adds bytes to the end of the queue and wakes the consumer.
func (q *byteQueue) Append(p ...byte) {
	if len(p) == 0 {
		return
	}
	q.mu.Lock()
	q.buf = append(q.buf, p...)
	old := q.wait
	q.wait = make(chan struct{})
	q.mu.Unlock()
	close(old)
}

// Signal returns the channel closed by the next Append.
func (q *byteQueue) Signal() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.wait
}

// Take removes and returns every queued byte.
func (q *byteQueue) Take() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	ret := q.buf
	q.buf = nil
	return ret
}

// Consume passes the queued bytes to fn while holding the lock and removes
// the number of bytes fn returns from the front of the queue.
// fn must not keep buf or call back into the queue.
func (q *byteQueue) Consume(fn func(buf []byte) int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := fn(q.buf)
	if n <= 0 {
		return 0
	}
	if n >= len(q.buf) {
		n = len(q.buf)
		q.buf = q.buf[:0]
		return n
	}
	//Copy remaining bytes so the backing array does not grow forever.
	q.buf = append(q.buf[:0], q.buf[n:]...)
	return n
}

// Len returns the number of queued bytes.
func (q *byteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
