// Command echo sends a periodic echo request to the device and waits for
// the reply, mirroring the distilled reference's echo.py: if no request is
// outstanding, send one; otherwise give up on it after 3 seconds of
// silence (the original's "janktown" timeout).
package main

import (
	"os"
	"time"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/targetflags"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

const echoGiveUpAfter = 3 * time.Second

func main() {
	log := targetlog.New("echo")

	fs, cfg := targetflags.BaseFlags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.WithError(err).Fatal("parsing flags")
	}

	tgt, err := targetflags.Resolve(cfg)
	if err != nil {
		log.WithError(err).Fatal("resolving target")
	}
	if tgt == nil {
		return // --list-ports printed its output and we're done
	}

	tgt.RegisterLoglineCallback(func(f hdlc.Frame) {
		log.Infof("device log: %s", string(f.Payload))
	})

	for {
		if !tgt.PendingInput() {
			tgt.Echo([]byte("hi mom"))
			log.Info("sending echo request")
		} else if !tgt.LastEchoSent.IsZero() && time.Since(tgt.LastEchoSent) > echoGiveUpAfter {
			log.Warn("echo reply timed out, giving up")
			tgt.PendingEcho = false
			tgt.LastEchoSent = time.Time{}
		}

		if err := tgt.Poll(); err != nil {
			log.WithError(err).Fatal("polling target")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
