// Package main provides the LLTF control server binary.
//
// It serves the JSON command API over a simulated instrument scenario; the
// physical vendor SDK is an external capability plugged in behind the same
// driver interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/lltfsim"
	"github.com/baileyji/Wavecal-Automation/logger"
	"github.com/baileyji/Wavecal-Automation/rest"
)

var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lltf-server",
	Short: "Control server for the LLTF Contrast tunable filter",
	Long: `lltf-server exposes the LLTF Contrast instrument as a JSON command API.
Commands (status, set_wave, grating, calibrate_grating) are posted to /lltf
and run through the fail-fast session sequencer.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (YAML)")
	rootCmd.Flags().String("listen", ":50001", "listen address")
	rootCmd.Flags().String("scenario", "", "simulated instrument scenario file (default: built-in LLTF-1)")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-file", "", "log file path (rotated); empty logs to stdout")

	viper.SetEnvPrefix("LLTF")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(rootCmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	log := buildLogger()

	scenario := lltfsim.DefaultConfig()
	if path := viper.GetString("scenario"); path != "" {
		var err error
		scenario, err = lltfsim.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	drv := lltfsim.New(scenario, log)
	seq, err := lltf.NewSequencer(drv, lltf.WithLogger(log))
	if err != nil {
		return err
	}

	srv, err := rest.NewServer(seq, rest.WithLogger(log))
	if err != nil {
		return err
	}

	listen := viper.GetString("listen")
	httpServer := &http.Server{
		Addr:         listen,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("lltf server listening", "addr", listen, "system", scenario.Systems[0])
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

func buildLogger() logger.Logger {
	level := parseLevel(viper.GetString("log-level"))

	if path := viper.GetString("log-file"); path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		return logger.NewSlogWriter(rotated, level, false)
	}

	return logger.NewSlog(level, false)
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
