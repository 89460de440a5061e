// Package main runs the state transition over an interop chain and reports how long each
// epoch takes, which makes it a benchmark and a smoke test of the engine.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/monitoring/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "stbench")

func main() {
	app := cli.App{
		Name:    "stbench",
		Usage:   "Benchmarks the beacon chain state transition on an interop chain",
		Version: fmt.Sprintf("dev (%s)", runtime.Version()),
		Flags:   appFlags,
		Before:  configureLogging,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Build an interop genesis state and advance it through a number of epochs",
				Flags:  runFlags,
				Action: runAction,
			},
			{
				Name:   "genesis",
				Usage:  "Build an interop genesis state and print its roots",
				Flags:  []cli.Flag{ValidatorsFlag, AltairForkEpochFlag},
				Action: genesisAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func configureLogging(cliCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cliCtx.String(VerbosityFlag.Name))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	switch format := cliCtx.String(LogFormatFlag.Name); format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		logrus.SetFormatter(formatter)
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %s", format)
	}
	logrus.AddHook(prometheus.NewLogrusCollector())
	return nil
}

// chainConfig returns the mainnet preset with the file and flag overrides applied.
func chainConfig(cliCtx *cli.Context) (*params.BeaconChainConfig, error) {
	cfg := params.MainnetConfig()
	if path := cliCtx.String(ChainConfigFileFlag.Name); path != "" {
		loaded, err := params.LoadChainConfigFile(path, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "could not load chain config file %s", path)
		}
		cfg = loaded
	}
	if cliCtx.IsSet(AltairForkEpochFlag.Name) {
		cfg.AltairForkEpoch = primitives.Epoch(cliCtx.Uint64(AltairForkEpochFlag.Name))
	}
	return cfg, nil
}
