// Command dac_control configures and/or starts/stops the DAC waveform
// generator, mirroring the distilled reference's dac_control.py. At least
// one of --start, --stop, or --configure must be given.
package main

import (
	"os"
	"time"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/targetflags"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

func main() {
	log := targetlog.New("dac_control")

	fs, cfg := targetflags.BaseFlags()
	start := fs.Bool("start", false, "start the DAC")
	stop := fs.Bool("stop", false, "stop the DAC")
	configure := fs.Bool("configure", false, "configure the DAC")
	prescaler := fs.Uint16("prescaler", 0, "timer prescaler")
	period := fs.Uint32("period", 0, "timer period")
	scale := fs.Uint8("scale", 0, "output scale")
	pointsPerWave := fs.Uint16("points-per-wave", 0, "samples per waveform cycle")
	numWaves := fs.Uint8("num-waves", 1, "number of waveform cycles in the buffer")
	theta0 := fs.Uint8("theta0", 0, "starting phase")

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

	if !*start && !*stop && !*configure {
		log.Fatal("need one of --start, --stop, or --configure (with its args)")
	}

	if *stop {
		tgt.DACStopRequest()
		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
	}

	if *configure {
		tgt.DACConfigRequest(*prescaler, *period, *scale, *pointsPerWave, *numWaves, *theta0)
		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
	}

	if *start {
		tgt.DACStartRequest()
		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
	}

	time.Sleep(time.Second)
}
