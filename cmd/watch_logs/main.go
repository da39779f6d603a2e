// Command watch_logs prints every log-channel frame received from the
// device, optionally prefixed with a local timestamp, mirroring the
// distilled reference's watch_logs.py.
package main

import (
	"os"
	"time"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/targetflags"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

func main() {
	log := targetlog.New("watch_logs")

	fs, cfg := targetflags.BaseFlags()
	timestamp := fs.Bool("timestamp", false, "prefix each log line with a local timestamp")
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
		line := string(f.Payload)
		if *timestamp {
			line = time.Now().Format(time.ANSIC) + " " + line
		}
		log.Info(line)
	})

	for {
		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
