package main

import (
	"github.com/urfave/cli/v2"
)

var (
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormatFlag specifies the log output format.
	LogFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, json.",
		Value: "text",
	}
	// MetricsAddrFlag serves prometheus metrics on the given address when set.
	MetricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Address to serve /metrics and /healthz on, e.g. 127.0.0.1:8080. Disabled when empty.",
	}
	// ChainConfigFileFlag loads a consensus config YAML file over the mainnet preset.
	ChainConfigFileFlag = &cli.StringFlag{
		Name:  "chain-config-file",
		Usage: "The path to a YAML file with chain config values applied over the mainnet preset",
	}
	// ValidatorsFlag sets the number of interop validators at genesis.
	ValidatorsFlag = &cli.Uint64Flag{
		Name:  "validators",
		Usage: "Number of interop validators in the genesis state",
		Value: 64,
	}
	// EpochsFlag sets how many epochs are processed.
	EpochsFlag = &cli.Uint64Flag{
		Name:  "epochs",
		Usage: "Number of epochs to advance the genesis state through",
		Value: 4,
	}
	// EmptySlotsFlag skips block production and only processes slots.
	EmptySlotsFlag = &cli.BoolFlag{
		Name:  "empty-slots",
		Usage: "Advance through empty slots instead of applying a block at every slot",
	}
	// AltairForkEpochFlag overrides ALTAIR_FORK_EPOCH.
	AltairForkEpochFlag = &cli.Uint64Flag{
		Name:  "altair-fork-epoch",
		Usage: "Epoch of the altair upgrade. Defaults to the chain config value.",
	}
	// SkipSignaturesFlag disables signature verification of applied blocks.
	SkipSignaturesFlag = &cli.BoolFlag{
		Name:  "skip-signatures",
		Usage: "Apply blocks without verifying their signatures",
	}
	// SignatureWorkersFlag bounds signature verification goroutines.
	SignatureWorkersFlag = &cli.IntFlag{
		Name:  "signature-workers",
		Usage: "Number of goroutines verifying a block's signature batch. Defaults to GOMAXPROCS.",
	}
)

var appFlags = []cli.Flag{
	VerbosityFlag,
	LogFormatFlag,
	MetricsAddrFlag,
	ChainConfigFileFlag,
}

var runFlags = []cli.Flag{
	ValidatorsFlag,
	EpochsFlag,
	EmptySlotsFlag,
	AltairForkEpochFlag,
	SkipSignaturesFlag,
	SignatureWorkersFlag,
}
