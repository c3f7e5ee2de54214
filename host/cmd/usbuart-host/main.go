package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"usbuart/config"
	"usbuart/host/serial"
	"usbuart/host/session"
	"usbuart/pkg"
	"usbuart/protocol"
)

var (
	device     = flag.String("device", "", "Serial device path (empty: first CDC ACM port)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	configPath = flag.String("config", "", "Configuration file (.json, .yaml)")
	mode       = flag.String("mode", "", "Framing mode: line or message")
	listPorts  = flag.Bool("list", false, "List serial ports and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	logFormat  = flag.String("log-format", "", "Log format: text or json")
)

func main() {
	flag.Parse()

	if *listPorts {
		if err := printPorts(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	pkg.SetLogLevel(pkg.ParseLogLevel(cfg.Host.LogLevel))
	pkg.SetLogFormat(pkg.ParseLogFormat(cfg.Host.LogFormat))

	fmt.Printf("usbuart host %s - USB CDC line/message console\n", protocol.Version)
	fmt.Println("==================================================")
	fmt.Println()

	s := session.New()
	fmt.Printf("Connecting (%s mode)...\n", cfg.Host.Mode)
	if err := s.Connect(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	fmt.Printf("Connected to %s\n", s.Device())

	// Interactive command loop
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := runCommand(s, line, os.Stdout); quit {
			fmt.Println("Goodbye!")
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads -config if given and lets the other flags override it
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *device != "" {
		cfg.Host.Device = *device
	}
	if *baud != 0 {
		cfg.Host.Baud = *baud
	}
	if *mode != "" {
		cfg.Host.Mode = *mode
	}
	if *verbose {
		cfg.Host.LogLevel = "debug"
	}
	if *logFormat != "" {
		cfg.Host.LogFormat = *logFormat
	}
	return cfg, config.Validate(cfg)
}

func printPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	for _, p := range ports {
		marker := " "
		if serial.IsCDCName(p) {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, p)
	}
	return nil
}
