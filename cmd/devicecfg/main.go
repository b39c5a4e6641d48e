// cmd/devicecfg/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/devicecfg/internal/config"
)

const usage = `usage: devicecfg [-log-level LEVEL] <command> [flags] <config.yaml>

commands:
  init       write a default configuration file
  validate   load and validate the configuration, report warnings
  export     render config.h, YAML or JSON
  ports      list serial ports on this host
  probe      check backend endpoints and the Modbus unit
  check      validate + probe, print a status report
  watch      poll the Modbus unit and log health transitions
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("devicecfg", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	level := global.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := global.Parse(args); err != nil {
		return 2
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicecfg: %v\n", err)
		return 2
	}
	log.SetLevel(lvl)

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "init":
		err = cmdInit(log, cmdArgs)
	case "validate":
		err = cmdValidate(log, cmdArgs)
	case "export":
		err = cmdExport(log, cmdArgs)
	case "ports":
		err = cmdPorts(log)
	case "probe":
		err = cmdProbe(ctx, log, cmdArgs)
	case "check":
		err = cmdCheck(ctx, log, cmdArgs)
	case "watch":
		err = cmdWatch(ctx, log, cmdArgs)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "devicecfg: unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "devicecfg %s: %v\n", cmd, err)
		return 2
	default:
		log.WithField("command", cmd).Error(err)
		return 1
	}
}

type usageError string

func (u usageError) Error() string { return string(u) }

// configArg returns the single positional config path.
func configArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", usageError("expected exactly one <config.yaml> argument")
	}
	return fs.Arg(0), nil
}

// --------------------
// Load + validate config
// --------------------

// loadConfig runs Load, Validate, Lint and Normalize in that order.
// Every validation error and warning is logged.
func loadConfig(log *logrus.Logger, path string) (*config.Config, []string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		var me *multierror.Error
		if errors.As(err, &me) {
			for _, e := range me.Errors {
				log.WithField("config", path).Error(e)
			}
			return nil, nil, fmt.Errorf("config validation failed: %d problem(s)", len(me.Errors))
		}
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	warns := config.Lint(cfg)
	for _, w := range warns {
		log.WithField("config", path).Warn(w)
	}

	config.Normalize(cfg)
	return cfg, warns, nil
}
