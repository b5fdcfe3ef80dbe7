/*
Package main contains a command-line example for gxbuzzer.

The example shows how to:
  - open a buzzer console from command-line flags or a YAML file
  - register session callbacks (trace, state, error) and an event handler
  - arm the console and re-arm it after a buzzer is pressed
  - drain events in polled mode or receive them in threaded mode
  - forward events to websocket clients and accept commands from them
*/
package main
