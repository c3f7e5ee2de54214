package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"usbuart/host/session"
)

// runCommand executes one console command and reports whether to exit.
// Arguments are split shell-style, so quoted text keeps its spaces.
func runCommand(s *session.Session, line string, out io.Writer) bool {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		printHelp(out)

	case "send", "line", "msg":
		payload := []byte(strings.Join(args, " "))
		if err := sendAs(s, cmd, payload); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Sent %d bytes\n", len(payload))

	case "hex":
		payload, err := hex.DecodeString(strings.Join(args, ""))
		if err != nil {
			fmt.Fprintf(out, "Error: bad hex: %v\n", err)
			return false
		}
		if err := s.Link().WriteRaw(payload); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Sent %d raw bytes\n", len(payload))

	case "recv":
		count := 1
		if len(args) > 0 {
			if count, err = strconv.Atoi(args[0]); err != nil || count < 1 {
				fmt.Fprintf(out, "Error: bad count %q\n", args[0])
				return false
			}
		}
		for i := 0; i < count; i++ {
			p, err := s.Receive()
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return false
			}
			printFrame(out, p)
		}

	case "ping":
		payload := []byte("ping")
		if len(args) > 0 {
			payload = []byte(strings.Join(args, " "))
		}
		rtt, err := s.Ping(payload)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Echo in %v\n", rtt)

	case "stats":
		fmt.Fprintf(out, "Mode: %s, dropped frames: %d\n", s.Link().Mode(), s.Link().Dropped())

	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for available commands)\n", cmd)
	}
	return false
}

// sendAs sends payload using the framing the command names. "send" follows
// the link mode.
func sendAs(s *session.Session, cmd string, payload []byte) error {
	switch cmd {
	case "line":
		return s.Link().WriteLine(payload)
	case "msg":
		return s.Link().WriteMessage(payload)
	default:
		return s.Send(payload)
	}
}

func printFrame(out io.Writer, p []byte) {
	if strconv.CanBackquote(string(p)) {
		fmt.Fprintf(out, "< %s\n", p)
		return
	}
	fmt.Fprintf(out, "< %s\n", hex.EncodeToString(p))
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  help            - Show this help message")
	fmt.Fprintln(out, "  send <text>     - Send text using the link mode")
	fmt.Fprintln(out, "  line <text>     - Send text as a line")
	fmt.Fprintln(out, "  msg <text>      - Send text as a framed message")
	fmt.Fprintln(out, "  hex <bytes>     - Send raw bytes, e.g. hex 02 05 41 42 03")
	fmt.Fprintln(out, "  recv [n]        - Wait for n lines or messages")
	fmt.Fprintln(out, "  ping [text]     - Send text and time the echo")
	fmt.Fprintln(out, "  stats           - Show link statistics")
	fmt.Fprintln(out, "  quit/exit/q     - Exit the program")
	fmt.Fprintln(out)
}
