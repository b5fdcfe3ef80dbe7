// Package gxbuzzer drives a NiSaCon buzzer console over a serial port.
// It sends the console commands, decodes the frames the console sends back
// and delivers the decoded events to registered handlers.
//
// Features
//
//   - Fixed line settings: 38400 baud, 8 data bits, no parity, one stop bit.
//   - Commands: Init, Arm, Reset, FullReset and raw Send. Commands never block.
//   - Events: Arm, FullReset, PartialReset, Trigger and Tilt.
//   - Dispatch: polled (events wait for Drain) or threaded (events are
//     delivered from the goroutine that raised them).
//   - Tracing: Sent, Received, Info and Error traces filtered by trace level.
//   - Events: Error, Trace and MediaState callbacks.
//
// # Construction
//
// Use NewGXBuzzer to open a console on a serial port. The port is opened
// and the console is initialized before NewGXBuzzer returns.
//
// Example
//
//	buzzer, err := gxbuzzer.NewGXBuzzer("/dev/ttyUSB0")
//	if err != nil {
//	    // handle connect error
//	}
//	defer buzzer.Close()
//
//	buzzer.AddEventHandler(func(kind gxbuzzer.EventKind, param int) {
//	    if kind == gxbuzzer.EventTrigger {
//	        fmt.Println("buzzer", param, "pressed")
//	    }
//	})
//	_ = buzzer.Arm()
//	for {
//	    buzzer.Drain()
//	    time.Sleep(20 * time.Millisecond)
//	}
//
// # Frames
//
// The console sends a digit when a buzzer is pressed, 'T' followed by the
// buzzer id when a buzzer is pressed before arming, and a six byte 'H' frame
// with the firmware version after Init. Unknown bytes are dropped one at a
// time until a known frame starts.
//
// # Errors
//
// Open failures are returned as *ConnectionError. A read or write failure
// after that stops the session. It is reported to the Error handler as an
// *IOError and later commands return ErrClosed.
//
// # Notes
//
// Commands raise their own event right away. The event tells what was
// requested, not what the console did. Handlers may issue commands and
// register handlers, but handlers called from worker goroutines must not call
// Close.
package gxbuzzer
