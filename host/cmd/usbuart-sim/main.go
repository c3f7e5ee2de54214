// usbuart-sim runs the adapter against the in-process USB device with an
// echo application, drives it from the host link and prints the transport
// counters. It exercises the whole stack without hardware.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"usbuart/config"
	"usbuart/core"
	"usbuart/host/session"
	"usbuart/pkg"
	"usbuart/sim"
)

var (
	configPath = flag.String("config", "", "Configuration file (.json, .yaml)")
	mode       = flag.String("mode", "", "Framing mode: line or message")
	count      = flag.Int("count", 100, "Number of round trips")
	size       = flag.Int("size", 32, "Payload size in bytes")
	stall      = flag.Bool("stall", false, "Stop polling the IN endpoint halfway through")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *mode != "" {
		cfg.Host.Mode = *mode
	}
	if *verbose {
		cfg.Host.LogLevel = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	pkg.SetLogLevel(pkg.ParseLogLevel(cfg.Host.LogLevel))
	pkg.SetLogFormat(pkg.ParseLogFormat(cfg.Host.LogFormat))

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := sim.NewDevice()
	u := core.New(dev, cfg.Firmware)
	u.SetDebugWriter(func(msg string) {
		pkg.LogInfo(pkg.ComponentSim, msg)
	})

	// Enumerate after the firmware starts waiting, as a real host would
	go func() {
		time.Sleep(10 * time.Millisecond)
		dev.SetConfigured(true)
	}()
	initCtx, initCancel := context.WithTimeout(ctx, time.Second)
	defer initCancel()
	if err := u.Init(initCtx); err != nil {
		return fmt.Errorf("enumeration: %w", err)
	}

	messages := cfg.Host.Mode != "line"
	// Servicer on the timer list, as on hardware
	core.ScheduleTimer(u.ServiceTimer(core.TickPeriod(cfg.Firmware.TickRateHz)))
	go core.TimerLoop(ctx, core.MonotonicClock(), 50*time.Microsecond)
	go echo(ctx, u, messages)

	s := session.New()
	if err := s.Attach(dev.Conn(), cfg); err != nil {
		return err
	}
	defer s.Close()

	payload := bytes.Repeat([]byte{'u'}, *size)
	var total time.Duration
	ok := 0
	for i := 0; i < *count; i++ {
		if *stall && i == *count/2 {
			dev.SetINReady(false)
			time.Sleep(50 * time.Millisecond)
			dev.SetINReady(true)
		}
		rtt, err := s.Ping(payload)
		if err != nil {
			pkg.LogWarn(pkg.ComponentSim, "round trip failed", "n", i, "err", err)
			continue
		}
		total += rtt
		ok++
	}

	fmt.Printf("%d/%d round trips (%s mode, %d bytes)", ok, *count, cfg.Host.Mode, *size)
	if ok > 0 {
		fmt.Printf(", mean %v", total/time.Duration(ok))
	}
	fmt.Println()
	printStats(u.Stats())
	u.SetDebugWriter(func(msg string) { fmt.Println(msg) })
	u.DumpEvents()
	return nil
}

// echo is the firmware application: every line or message received is
// sent back unchanged
func echo(ctx context.Context, u *core.UART, messages bool) {
	buf := make([]byte, 256)
	for ctx.Err() == nil {
		var n int
		if messages {
			if n = u.GetMessage(buf); n > 0 {
				u.PutMessage(buf[:n])
			}
		} else if n = u.GetLine(buf); n > 0 {
			u.PutLine(buf[:n])
		}
		if n == 0 {
			time.Sleep(100 * time.Microsecond)
		}
	}
}

func printStats(st core.Stats) {
	fmt.Printf("RX: %d packets, %d bytes, %d NAKs\n", st.RxPackets, st.RxBytes, st.RxNaks)
	fmt.Printf("TX: %d packets, %d bytes, %d ZLPs, %d rejects\n", st.TxPackets, st.TxBytes, st.TxZLPs, st.TxRejects)
	fmt.Printf("Stalls: %d purges, %d bytes discarded\n", st.TxPurges, st.TxPurgedBytes)
	fmt.Printf("CDC inits: %d\n", st.Reconfigurations)
}
