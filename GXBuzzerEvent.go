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
	"strings"
)

// EventKind is the type of a buzzer event.
type EventKind int

const (
	// EventArm is raised when the buzzers are armed. Param is 0.
	EventArm EventKind = iota
	// EventFullReset is raised when all buzzers are reset. Param is 0.
	EventFullReset
	// EventPartialReset is raised when the last pressed buzzer is blocked
	// and the others are reset. Param is 0.
	EventPartialReset
	// EventTrigger is raised when a buzzer is pressed. Param is the buzzer index.
	EventTrigger
	// EventTilt is raised when a buzzer was pressed before the console was
	// armed. Param is the buzzer index.
	EventTilt
)

var eventKindNames = [...]string{
	EventArm:          "Arm",
	EventFullReset:    "FullReset",
	EventPartialReset: "PartialReset",
	EventTrigger:      "Trigger",
	EventTilt:         "Tilt",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind returns the event kind with the given name.
// The comparison is case insensitive.
func ParseEventKind(value string) (EventKind, error) {
	for k, name := range eventKindNames {
		if strings.EqualFold(name, value) {
			return EventKind(k), nil
		}
	}
	return 0, fmt.Errorf("invalid event kind: %q", value)
}

// Event is one decoded or locally raised buzzer event.
type Event struct {
	Kind  EventKind
	Param int
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s %d", e.Kind, e.Param)
}

// EventHandler receives buzzer events.
type EventHandler func(kind EventKind, param int)

// HandlerID identifies one handler registration.
// The zero value is never allocated.
type HandlerID uint64

// DispatchMode selects how events reach the registered handlers.
type DispatchMode int

const (
	// DispatchPolled queues events until Drain is called.
	DispatchPolled DispatchMode = iota
	// DispatchThreaded delivers events as soon as they are raised,
	// from the goroutine that raised them.
	DispatchThreaded
)

// String implements fmt.Stringer.
func (m DispatchMode) String() string {
	switch m {
	case DispatchPolled:
		return "Polled"
	case DispatchThreaded:
		return "Threaded"
	}
	return fmt.Sprintf("DispatchMode(%d)", int(m))
}

// FirmwareVersion is reported by the console after it is initialized.
type FirmwareVersion struct {
	Hardware      int
	SoftwareMajor int
	SoftwareMinor int
}

// String implements fmt.Stringer.
func (v FirmwareVersion) String() string {
	return fmt.Sprintf("hw %d sw %d.%d", v.Hardware, v.SoftwareMajor, v.SoftwareMinor)
}
