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

// Control bytes sent to the console.
const (
	cmdInit      byte = 'I'
	cmdArm       byte = 'A'
	cmdReset     byte = 'r'
	cmdFullReset byte = 'R'
)

// Leading bytes of the frames sent by the console.
const (
	frameHello byte = 'H'
	frameTilt  byte = 'T'
)

const (
	helloFrameSize = 6
	tiltFrameSize  = 2
)

// frame is the result of decoding the front of the inbound queue.
type frame struct {
	// size is the number of bytes consumed. Zero means the queue is empty
	// or holds an incomplete frame.
	size    int
	event   Event
	emit    bool
	version *FirmwareVersion
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func digit(b byte) int {
	return int(b) - '0'
}

// decodeFrame decodes at most one frame from the front of buf.
// It never reads past the bytes of the frame it is decoding.
func decodeFrame(buf []byte) frame {
	if len(buf) == 0 {
		return frame{}
	}
	c := buf[0]
	switch {
	case c == frameHello:
		//Wait until the whole hello is received.
		if len(buf) < helloFrameSize {
			return frame{}
		}
		//Bytes 3 and 5 are separators.
		return frame{
			size: helloFrameSize,
			version: &FirmwareVersion{
				Hardware:      digit(buf[1]),
				SoftwareMajor: digit(buf[3]),
				SoftwareMinor: digit(buf[5]),
			},
		}
	case isDigit(c):
		return frame{size: 1, emit: true, event: Event{Kind: EventTrigger, Param: digit(c)}}
	case c == frameTilt:
		if len(buf) < tiltFrameSize {
			return frame{}
		}
		id := int(buf[1])
		if isDigit(buf[1]) {
			id = digit(buf[1])
		}
		return frame{size: tiltFrameSize, emit: true, event: Event{Kind: EventTilt, Param: id}}
	}
	//Unknown byte. Drop it.
	return frame{size: 1}
}

// decodeAll decodes every complete frame in buf and returns the events in
// order, the last reported version and the number of consumed bytes.
func decodeAll(buf []byte) (events []Event, version *FirmwareVersion, consumed int) {
	for consumed < len(buf) {
		f := decodeFrame(buf[consumed:])
		if f.size == 0 {
			break
		}
		consumed += f.size
		if f.version != nil {
			version = f.version
		}
		if f.emit {
			events = append(events, f.event)
		}
	}
	return events, version, consumed
}
