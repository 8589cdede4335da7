package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dbw/config"
	"github.com/kilianp07/dbw/simulator"
)

var (
	simToggleSeconds int
	simNoiseSigma    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated upstream inputs against the configured broker",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simToggleSeconds, "toggle-seconds", 0, "toggle dbw authorization every N seconds (0 = never)")
	simulateCmd.Flags().Float64Var(&simNoiseSigma, "noise-sigma", 0.05, "velocity measurement noise std dev (m/s)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	up := simulator.New(simulator.Config{
		Broker:       cfg.MQTT.Broker,
		RateHz:       cfg.Control.SamplingRateHz,
		NoiseSigma:   simNoiseSigma,
		TogglePeriod: time.Duration(simToggleSeconds) * time.Second,
		Topics:       cfg.MQTT.Topics,
	})
	return up.Run(ctx)
}
