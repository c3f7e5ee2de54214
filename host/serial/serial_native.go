//go:build !wasm

package serial

import (
	"fmt"
	"strings"
	"time"

	bugst "go.bug.st/serial"

	"github.com/tarm/serial"

	"usbuart/pkg"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	pkg.LogInfo(pkg.ComponentSerial, "opened", "device", cfg.Device, "baud", cfg.Baud)

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards data received but not yet read
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// ListPorts returns the serial ports present on the system
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, pkg.ErrNoPorts
	}
	return ports, nil
}

// FindCDCPort picks the first port that looks like a USB CDC ACM device
// (ttyACM*, cu.usbmodem*, COM*).
func FindCDCPort() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if IsCDCName(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: none of %d ports is a CDC ACM device", pkg.ErrNoPorts, len(ports))
}

// IsCDCName reports whether name follows a CDC ACM device naming scheme
func IsCDCName(name string) bool {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.HasPrefix(base, "ttyACM") ||
		strings.HasPrefix(base, "cu.usbmodem") ||
		strings.HasPrefix(base, "tty.usbmodem") ||
		strings.HasPrefix(strings.ToUpper(base), "COM")
}
