// Package targetflags provides the shared command-line surface used by
// every cmd/* front-end: --port, --port-serial-no, --list-ports, --baud,
// --timeout, --log-level, built on spf13/pflag for a POSIX-style
// double-dash interface (grounded on doismellburning-samoyed's kissutil
// flag handling).
package targetflags

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/jbm9/argali-tether/pkg/serialport"
	"github.com/jbm9/argali-tether/pkg/target"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

const (
	defaultBaud    = 115200
	defaultTimeout = 1.0
)

// Config holds the parsed values of the shared flag set.
type Config struct {
	Port         string
	PortSerialNo string
	ListPorts    bool
	Baud         int
	Timeout      float64
	LogLevel     string
}

// BaseFlags returns a FlagSet pre-populated with the shared flags. Callers
// should add any command-specific flags to the returned set before calling
// fs.Parse.
func BaseFlags() (*pflag.FlagSet, *Config) {
	fs := pflag.NewFlagSet("argali-tether", pflag.ExitOnError)
	cfg := &Config{}
	fs.StringVar(&cfg.Port, "port", "", "serial device path, e.g. /dev/ttyUSB0")
	fs.StringVar(&cfg.PortSerialNo, "port-serial-no", "", "USB serial number of the device to open, instead of --port")
	fs.BoolVar(&cfg.ListPorts, "list-ports", false, "list detected serial ports and exit")
	fs.IntVar(&cfg.Baud, "baud", defaultBaud, "baud rate")
	fs.Float64Var(&cfg.Timeout, "timeout", defaultTimeout, "read timeout in seconds; -1 means block forever")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "log level (debug, info, warn, error); default info")
	return fs, cfg
}

// ErrConfig is returned by Resolve for any usage-level misconfiguration,
// distinguishing it from a runtime serial I/O error.
type ErrConfig struct {
	Msg string
}

func (e *ErrConfig) Error() string { return e.Msg }

// Resolve turns a parsed Config into a ready-to-use *target.Target. If
// cfg.ListPorts is set, Resolve prints the detected ports to stdout and
// returns a nil Target with a nil error; callers should check for that case
// and exit 0 without treating it as failure. When --port-serial-no matches no
// attached port, Resolve prints the detected ports to stdout before
// returning the *serialport.ErrPortNotFound error.
func Resolve(cfg *Config) (*target.Target, error) {
	level, err := targetlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, &ErrConfig{Msg: fmt.Sprintf("invalid --log-level: %v", err)}
	}
	targetlog.SetLevel(level)

	if cfg.ListPorts {
		ports, err := serialport.ListPorts()
		if err != nil {
			return nil, fmt.Errorf("list ports: %w", err)
		}
		for _, p := range ports {
			if p.SerialNumber != "" {
				fmt.Printf("%s\tserial=%s\n", p.Path, p.SerialNumber)
			} else {
				fmt.Println(p.Path)
			}
		}
		return nil, nil
	}

	if cfg.Port == "" && cfg.PortSerialNo == "" {
		return nil, &ErrConfig{Msg: "one of --port or --port-serial-no is required"}
	}
	if cfg.Port != "" && cfg.PortSerialNo != "" {
		return nil, &ErrConfig{Msg: "--port and --port-serial-no are mutually exclusive"}
	}

	timeout := time.Duration(cfg.Timeout * float64(time.Second))
	if cfg.Timeout < 0 {
		timeout = -1
	}

	var port *serialport.Port
	if cfg.PortSerialNo != "" {
		port, err = serialport.OpenBySerialNumber(cfg.PortSerialNo, cfg.Baud, timeout)
	} else {
		port, err = serialport.Open(cfg.Port, cfg.Baud, timeout)
	}
	if err != nil {
		var notFound *serialport.ErrPortNotFound
		if errors.As(err, &notFound) {
			if ports, listErr := serialport.ListPorts(); listErr == nil {
				fmt.Println("available ports:")
				for _, p := range ports {
					fmt.Printf("%s\tserial=%s\n", p.Path, p.SerialNumber)
				}
			}
		}
		return nil, err
	}

	return target.New(port), nil
}
