package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gurux/gxbuzzer-go"
	"github.com/Gurux/gxcommon-go"
)

var (
	port     = flag.String("S", "", "Port name")
	c        = flag.String("c", "", "YAML configuration file.")
	t        = flag.String("t", "", "Trace level.")
	lang     = flag.String("lang", "", "Used language.")
	threaded = flag.Bool("threaded", false, "Deliver events from the decoder goroutine.")
	rearm    = flag.Bool("rearm", false, "Arm the console again after a buzzer is pressed.")
	listen   = flag.String("listen", "", "Websocket bridge address, for example :8080.")
)

func main() {
	flag.Parse()
	cfg, err := loadConfig(*c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		return
	}
	if *port != "" {
		cfg.Buzzer.Port = *port
	}
	if *t != "" {
		cfg.Buzzer.Trace = *t
	}
	if *lang != "" {
		cfg.Buzzer.Language = *lang
	}
	if *threaded {
		cfg.Buzzer.ThreadedEvents = true
	}
	if *listen != "" {
		cfg.Bridge.Listen = *listen
	}
	if cfg.Buzzer.Port == "" {
		flag.PrintDefaults()
		return
	}

	fmt.Printf("Host port: %s\n", cfg.Buzzer.Port)
	fmt.Printf("Dispatch mode: %s\n", cfg.Buzzer.DispatchMode())
	buzzer, err := gxbuzzer.NewGXBuzzerFromConfig(&cfg.Buzzer)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error returned:", err)
		if !errors.Is(err, gxbuzzer.ErrConnection) {
			return
		}
		ret, err := gxbuzzer.GetPortNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get available serial ports: ", err)
			return
		}
		fmt.Fprintln(os.Stderr, "Available serial ports: "+strings.Join(ret, ","))
		return
	}
	//Close the connection.
	defer func() {
		if err := buzzer.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close failed:", err)
		}
	}()
	fmt.Printf("Trace level %s\n", buzzer.GetTrace().String())

	var br *bridge
	if cfg.Bridge.Listen != "" {
		br = newBridge(buzzer)
	}

	buzzer.SetOnError(func(m *gxbuzzer.GXBuzzer, err error) {
		fmt.Fprintln(os.Stderr, "error:", err)
	})

	buzzer.SetOnMediaStateChange(func(m *gxbuzzer.GXBuzzer, e gxcommon.MediaStateEventArgs) {
		fmt.Printf("Media state change : %s\n", e.State().String())
		if br != nil {
			br.publishState()
		}
	})

	buzzer.SetOnTrace(func(m *gxbuzzer.GXBuzzer, e gxcommon.TraceEventArgs) {
		fmt.Printf("Trace: %s\n", e.String())
	})

	buzzer.AddEventHandler(func(kind gxbuzzer.EventKind, param int) {
		switch kind {
		case gxbuzzer.EventTrigger:
			fmt.Printf("Buzzer %d pressed\n", param)
			if *rearm {
				if err := buzzer.Arm(); err != nil {
					fmt.Fprintln(os.Stderr, "arm failed:", err)
				}
			}
		case gxbuzzer.EventTilt:
			fmt.Printf("Buzzer %d pressed too early\n", param)
		default:
			fmt.Printf("Event: %s\n", kind)
		}
		if br != nil {
			br.publishEvent(kind, param)
		}
	})

	if br != nil {
		mux := http.NewServeMux()
		mux.HandleFunc(cfg.Bridge.Path, br.handleWS)
		srv := &http.Server{Addr: cfg.Bridge.Listen, Handler: mux}
		go func() {
			log.Printf("Websocket bridge listening on %s%s", cfg.Bridge.Listen, cfg.Bridge.Path)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("bridge server error: %v", err)
			}
		}()
		defer srv.Close()
	}

	if err := buzzer.Arm(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sig:
			fmt.Printf("Exit\n")
			return
		case <-ticker.C:
			//Threaded mode delivers events itself.
			buzzer.Drain()
			if !buzzer.IsOpen() {
				fmt.Fprintln(os.Stderr, "connection lost:", buzzer.Err())
				return
			}
		}
	}
}
