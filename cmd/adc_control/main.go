// Command adc_control requests an ADC capture and prints the resulting
// sample bytes as hex, mirroring the distilled reference's adc_control.py.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/targetflags"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

func main() {
	log := targetlog.New("adc_control")

	fs, cfg := targetflags.BaseFlags()
	request := fs.Bool("request", false, "request readings from the ADC")
	quiet := fs.BoolP("quiet", "q", false, "don't show byte offsets, just the hex blob")
	prescaler := fs.Uint16("prescaler", 0, "timer prescaler")
	period := fs.Uint32("period", 0, "timer period")
	numPoints := fs.Uint16("num-points", 1, "number of samples per channel")
	sampleWidth := fs.Uint8("sample-width", 2, "bytes per sample")
	sampleTime := fs.Uint16("sample-time", 0, "ADC sample time setting")
	channels := fs.String("channels", "0", "comma-separated list of ADC channel numbers")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.WithError(err).Fatal("parsing flags")
	}

	tgt, err := targetflags.Resolve(cfg)
	if err != nil {
		log.WithError(err).Fatal("resolving target")
	}
	if tgt == nil {
		return
	}

	tgt.RegisterLoglineCallback(func(f hdlc.Frame) {
		log.Infof("device log: %s", string(f.Payload))
	})

	if !*request {
		log.Fatal("need --request (with its args)")
	}

	chanBytes, err := parseChannels(*channels)
	if err != nil {
		log.WithError(err).Fatal("parsing --channels")
	}

	tgt.SetADCCallback(func(buf []byte) {
		for i := 0; i < len(buf); i += 16 {
			end := i + 16
			if end > len(buf) {
				end = len(buf)
			}
			if *quiet {
				fmt.Printf("%x\n", buf[i:end])
			} else {
				fmt.Printf("%4d: %x\n", i, buf[i:end])
			}
		}
	})

	tgt.ADCCaptureRequest(*prescaler, *period, *numPoints, *sampleWidth, *sampleTime, chanBytes)

	for tgt.PendingADCBytes > 0 {
		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func parseChannels(s string) ([]byte, error) {
	var out []byte
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				var v uint8
				if _, err := fmt.Sscanf(s[start:i], "%d", &v); err != nil {
					return nil, fmt.Errorf("invalid channel %q: %w", s[start:i], err)
				}
				out = append(out, v)
			}
			start = i + 1
		}
	}
	return out, nil
}
