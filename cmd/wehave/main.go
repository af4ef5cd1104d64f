package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/wehave/market/internal/config"
	"github.com/wehave/market/internal/setup"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:    "wehave",
		Usage:   "crowdfund, trade and govern items on NEAR",
		Version: market.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "path to .env file",
				EnvVars: []string{"WEHAVE_ENV"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw json",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logs",
			},
		},
		Commands: []*cli.Command{
			loginCommand,
			logoutCommand,
			whoamiCommand,
			keygenCommand,
			itemsCommand,
			crowdfundsCommand,
			createCrowdfundCommand,
			fundCommand,
			previewCommand,
			claimCommand,
			proposalsCommand,
			proposeCommand,
			voteCommand,
			txCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cctx *cli.Context) (*zap.Logger, error) {
	if !cctx.Bool("debug") {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func loadMarket(cctx *cli.Context) (*setup.Market, error) {
	conf, err := config.New(cctx.Context, cctx.String("env"))
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cctx)
	if err != nil {
		return nil, err
	}

	return setup.New(cctx.Context, conf, nil, log)
}
