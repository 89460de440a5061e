package main

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/monitoring/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func runAction(cliCtx *cli.Context) error {
	cfg, err := chainConfig(cliCtx)
	if err != nil {
		return err
	}
	opts := transition.DefaultOptions()
	if cliCtx.Bool(SkipSignaturesFlag.Name) {
		opts.VerifyProposerSignature = false
		opts.VerifySignatures = false
	}
	if workers := cliCtx.Int(SignatureWorkersFlag.Name); workers > 0 {
		opts.SignatureWorkers = workers
	}
	conf := benchConfig{
		Validators: cliCtx.Uint64(ValidatorsFlag.Name),
		Epochs:     cliCtx.Uint64(EpochsFlag.Name),
		EmptySlots: cliCtx.Bool(EmptySlotsFlag.Name),
		Options:    opts,
	}

	began := time.Now()
	b, err := newBench(cliCtx.Context, cfg, conf)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"validators": conf.Validators,
		"elapsed":    time.Since(began),
	}).Info("Built genesis state")

	if addr := cliCtx.String(MetricsAddrFlag.Name); addr != "" {
		svc := prometheus.NewService(addr, b.Status)
		svc.Start()
		defer func() {
			if err := svc.Stop(); err != nil {
				log.WithError(err).Error("Could not stop metrics service")
			}
		}()
	}

	began = time.Now()
	if err := b.run(cliCtx.Context, logReport); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"epochs":  conf.Epochs,
		"elapsed": time.Since(began),
	}).Info("Finished run")
	return nil
}

func genesisAction(cliCtx *cli.Context) error {
	cfg, err := chainConfig(cliCtx)
	if err != nil {
		return err
	}
	st, _, err := interopGenesis(cliCtx.Context, cfg, cliCtx.Uint64(ValidatorsFlag.Name))
	if err != nil {
		return err
	}
	root, err := st.HashTreeRoot(cliCtx.Context)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"stateRoot":             hexutil.Encode(root[:]),
		"genesisValidatorsRoot": hexutil.Encode(st.GenesisValidatorsRoot()),
		"validators":            st.NumValidators(),
		"totalETH":              gweiToEth(st.EpochCtx().TotalActiveBalance()).String(),
	}).Info("Built genesis state")
	return nil
}
