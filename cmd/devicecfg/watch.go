// cmd/devicecfg/watch.go
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/devicecfg/internal/poller"
	pmodbus "github.com/tamzrod/devicecfg/internal/poller/modbus"
	"github.com/tamzrod/devicecfg/internal/status"
)

func cmdWatch(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", 0, "override bus.poll_interval_ms")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}
	if *interval < 0 || (*interval > 0 && *interval < time.Millisecond) {
		return usageError("-interval must be at least 1ms")
	}

	cfg, _, err := loadConfig(log, path)
	if err != nil {
		return err
	}
	if *interval > 0 {
		cfg.Bus.PollIntervalMs = int(interval.Milliseconds())
	}

	if err := pmodbus.CheckPort(cfg.Bus.Port); err != nil {
		return err
	}

	trace, closeTrace := traceWriter(log)
	defer closeTrace()

	// ---- poller ----
	p, closePoller, err := poller.Build(cfg, trace)
	if err != nil {
		return err
	}
	defer closePoller()

	entry := log.WithFields(logrus.Fields{
		"device": cfg.Device.ID,
		"port":   cfg.Bus.Port,
		"unit":   cfg.Bus.UnitID,
	})
	entry.WithField("interval", cfg.Bus.PollInterval()).Info("watching bus")

	// ---- channel between poller and orchestrator ----
	out := make(chan poller.PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	// a cycle may spend up to one timeout per read before reporting
	staleAfter := 2*cfg.Bus.PollInterval() + time.Duration(len(cfg.Bus.Reads))*cfg.Bus.Timeout()
	watch(ctx, entry, out, time.Second, staleAfter)

	// the poller owns the client until Run returns
	<-done
	entry.Info("watch stopped")
	return nil
}

// watch folds poll results into a status snapshot and logs every change.
// tick drives seconds-in-error; it is one second outside tests.
// A healthy snapshot goes stale when no result arrives within staleAfter (0 disables).
func watch(ctx context.Context, entry *logrus.Entry, in <-chan poller.PollResult, tick, staleAfter time.Duration) status.Snapshot {
	var snap status.Snapshot
	snap.Health = status.HealthUnknown

	secTicker := time.NewTicker(tick)
	defer secTicker.Stop()

	lastSeen := time.Now()

	for {
		select {
		case <-ctx.Done():
			return snap

		case res := <-in:
			lastSeen = time.Now()
			prev := snap.Health
			code := errorCode(res.Err)
			if !snap.Observe(res.Err == nil, code) {
				continue
			}

			fields := logrus.Fields{
				"health":     status.HealthName(snap.Health),
				"last_error": snap.LastErrorCode,
			}
			switch {
			case res.Err == nil:
				entry.WithFields(fields).WithField("blocks", len(res.Blocks)).Info("bus ok")
			case prev != status.HealthError:
				entry.WithFields(fields).WithError(res.Err).Error("bus error")
			default:
				entry.WithFields(fields).WithError(res.Err).Warn("bus error changed")
			}

		case <-secTicker.C:
			if staleAfter > 0 && time.Since(lastSeen) > staleAfter && snap.MarkStale() {
				entry.WithFields(logrus.Fields{
					"health": status.HealthName(snap.Health),
					"since":  lastSeen.Format(time.RFC3339),
				}).Warn("bus data stale")
			}
			if !snap.Tick() {
				continue
			}
			// every tick would flood the log; report on whole minutes
			if snap.SecondsInError%60 == 0 || snap.SecondsInError == status.SecondsInErrorMax {
				entry.WithFields(logrus.Fields{
					"health":           status.HealthName(snap.Health),
					"seconds_in_error": snap.SecondsInError,
				}).Warn("bus still failing")
			}
		}
	}
}

// errorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
