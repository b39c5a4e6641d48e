// cmd/devicecfg/commands.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/devicecfg/internal/config"
	"github.com/tamzrod/devicecfg/internal/endpoint"
	"github.com/tamzrod/devicecfg/internal/export"
	"github.com/tamzrod/devicecfg/internal/poller"
	pmodbus "github.com/tamzrod/devicecfg/internal/poller/modbus"
	"github.com/tamzrod/devicecfg/internal/retry"
	"github.com/tamzrod/devicecfg/internal/status"
)

// stdout receives command output; swapped in tests.
var stdout io.Writer = os.Stdout

// newProber builds the endpoint prober; tests swap it to trust their TLS server.
var newProber = func(deviceID string, policy retry.Policy, log *logrus.Logger) *endpoint.Prober {
	return endpoint.NewProber(deviceID, policy, endpoint.Options{Logger: log})
}

func cmdInit(log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s exists; use -force to overwrite", path)
		}
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	log.WithField("file", path).Info("default configuration written; edit network and endpoints before export")
	return nil
}

func cmdValidate(log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "treat warnings as errors")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}

	cfg, warns, err := loadConfig(log, path)
	if err != nil {
		return err
	}
	if *strict && len(warns) > 0 {
		return fmt.Errorf("%d warning(s) with -strict", len(warns))
	}

	log.WithFields(logrus.Fields{
		"device":   cfg.Device.ID,
		"chip":     cfg.Target.Chip,
		"warnings": len(warns),
	}).Info("configuration valid")
	return nil
}

func cmdExport(log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "header", "output format: header, yaml, json")
	outPath := fs.String("o", "", "output file (default stdout)")
	reveal := fs.Bool("reveal", false, "include the Wi-Fi passphrase in yaml/json output")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return usageError(err.Error())
	}

	cfg, _, err := loadConfig(log, path)
	if err != nil {
		return err
	}

	w := stdout
	if *outPath != "" {
		file, err := os.OpenFile(*outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer file.Close()
		w = file
	}

	bw := bufio.NewWriter(w)
	if err := export.Write(bw, f, cfg, filepath.Base(path), *reveal); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if *outPath != "" {
		log.WithFields(logrus.Fields{"format": f, "file": *outPath}).Info("exported")
	}
	return nil
}

func cmdPorts(log *logrus.Logger) error {
	ports, err := pmodbus.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		log.Warn("no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

func cmdProbe(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	eps := fs.Bool("endpoints", false, "probe backend endpoints only")
	bus := fs.Bool("bus", false, "probe the Modbus unit only")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}
	if !*eps && !*bus {
		*eps, *bus = true, true
	}

	cfg, _, err := loadConfig(log, path)
	if err != nil {
		return err
	}

	report := status.NewReport(cfg.Device.ID, time.Now())
	probe(ctx, log, cfg, report, *eps, *bus)

	if !report.OK() {
		return fmt.Errorf("probe failed: overall %s", report.Overall)
	}
	log.WithField("device", cfg.Device.ID).Info("probe ok")
	return nil
}

func cmdCheck(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	skipBus := fs.Bool("skip-bus", false, "do not open the serial port")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	path, err := configArg(fs)
	if err != nil {
		return err
	}

	report := status.NewReport("", time.Now())

	cfg, warns, err := loadConfig(log, path)
	if err != nil {
		report.Add("config", status.HealthError, err.Error())
	} else {
		report.DeviceID = cfg.Device.ID
		report.Add("config", status.HealthOK, "valid", warns...)
		probe(ctx, log, cfg, report, true, !*skipBus)
		if *skipBus {
			report.Add("bus", status.HealthDisabled, "skipped")
		}
	}

	out, err := status.Encode(report)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(out); err != nil {
		return fmt.Errorf("check: write report: %w", err)
	}

	if !report.OK() {
		return fmt.Errorf("check failed: overall %s", report.Overall)
	}
	return nil
}

// probe adds one check per endpoint and one for the bus.
func probe(ctx context.Context, log *logrus.Logger, cfg *config.Config, report *status.Report, eps, bus bool) {
	policy := retry.FromConfig(cfg.Retry)

	if eps {
		p := newProber(cfg.Device.ID, policy, log)
		for _, r := range p.ProbeAll(ctx, cfg.Endpoints.List()) {
			fields := logrus.Fields{
				"endpoint": r.Name,
				"url":      r.URL,
				"status":   r.StatusCode,
				"attempts": r.Attempts,
				"latency":  r.Latency.Round(time.Millisecond),
			}
			if r.Reachable() {
				warns := r.Warnings()
				for _, w := range warns {
					log.WithFields(fields).Warn(w)
				}
				if len(warns) == 0 {
					log.WithFields(fields).Info("endpoint reachable")
				}
				report.Add("endpoint."+r.Name, status.HealthOK, fmt.Sprintf("HTTP %d in %d attempt(s)", r.StatusCode, r.Attempts), warns...)
				continue
			}
			log.WithFields(fields).WithError(r.Err).Error("endpoint unreachable")
			report.Add("endpoint."+r.Name, status.HealthError, errString(r.Err))
		}
	}

	if bus {
		health, detail, warns := probeBus(ctx, log, cfg, policy)
		report.Add("bus", health, detail, warns...)
	}
}

// probeBus verifies that the configured unit address answers on the configured port.
func probeBus(ctx context.Context, log *logrus.Logger, cfg *config.Config, policy retry.Policy) (uint16, string, []string) {
	entry := log.WithFields(logrus.Fields{
		"port": cfg.Bus.Port,
		"unit": cfg.Bus.UnitID,
		"mode": fmt.Sprintf("%d %s", cfg.Bus.BaudRate, cfg.Bus.Mode()),
	})

	if err := pmodbus.CheckPort(cfg.Bus.Port); err != nil {
		entry.WithError(err).Error("bus port missing")
		return status.HealthError, err.Error(), nil
	}

	trace, closeTrace := traceWriter(log)
	defer closeTrace()

	p, closePoller, err := poller.Build(cfg, trace)
	if err != nil {
		entry.WithError(err).Error("poller build failed")
		return status.HealthError, err.Error(), nil
	}
	defer closePoller()

	return busCheck(ctx, entry, p, policy, cfg.Bus)
}

// busCheck polls until the unit answers or the retry budget is spent.
// An exception response ends the retries: the unit is there, the read geometry is not.
func busCheck(ctx context.Context, entry *logrus.Entry, p *poller.Poller, policy retry.Policy, bus config.BusConfig) (uint16, string, []string) {
	var last poller.PollResult
	err := policy.Do(ctx,
		func(int) error {
			last = p.PollOnce()
			if last.Err != nil && last.ExceptionCode != 0 {
				// the unit answered; retrying will not change its mind
				return retry.Permanent(last.Err)
			}
			return last.Err
		},
		func(attempt int, err error, wait time.Duration) {
			entry.WithError(err).WithField("attempt", attempt).Warnf("bus read failed, retrying in %s", wait)
		},
	)

	switch {
	case err == nil:
		entry.WithField("blocks", len(last.Blocks)).Info("unit answered")
		return status.HealthOK, fmt.Sprintf("unit %d answered on %s", bus.UnitID, bus.Port), nil
	case last.Answered():
		w := fmt.Sprintf("unit %d answered with exception %d; check bus.reads", bus.UnitID, last.ExceptionCode)
		entry.Warn(w)
		return status.HealthOK, fmt.Sprintf("unit %d answered on %s", bus.UnitID, bus.Port), []string{w}
	default:
		entry.WithError(err).Error("unit did not answer")
		return status.HealthError, errString(err), nil
	}
}

// traceWriter feeds raw Modbus frames to the logger at debug level.
func traceWriter(log *logrus.Logger) (io.Writer, func()) {
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		return nil, func() {}
	}
	w := log.WriterLevel(logrus.DebugLevel)
	return w, func() { _ = w.Close() }
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
