// Package main provides lltfctl, the operator CLI for an LLTF control server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/baileyji/Wavecal-Automation/client"
)

var (
	serverURL string
	timeout   time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lltfctl",
	Short: "Operator CLI for the LLTF Contrast control server",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:50001", "control server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	waveCmd.AddCommand(waveGetCmd, waveSetCmd)
	gratingCmd.AddCommand(gratingStatusCmd, gratingCalibrateCmd)
	rootCmd.AddCommand(statusCmd, waveCmd, gratingCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(timeout))
}

// printJSON renders the command result for the operator.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the composite instrument snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := newClient().Status(context.Background())
		if err != nil {
			return err
		}
		return printJSON(snapshot)
	},
}

var waveCmd = &cobra.Command{
	Use:   "wave",
	Short: "Query or set the central wavelength",
}

var waveGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current central wavelength (nm)",
	RunE: func(cmd *cobra.Command, args []string) error {
		nm, err := newClient().Wavelength(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%g nm\n", nm)

		return nil
	},
}

var waveSetCmd = &cobra.Command{
	Use:   "set <nm>",
	Short: "Move the filter to a target central wavelength (nm)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nm, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid wavelength %q: %w", args[0], err)
		}

		report, err := newClient().SetWavelength(context.Background(), nm)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var gratingCmd = &cobra.Command{
	Use:   "grating",
	Short: "Query or calibrate the diffraction grating",
}

var gratingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the grating descriptor",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := newClient().Grating(context.Background())
		if err != nil {
			return err
		}
		return printJSON(desc)
	},
}

var gratingCalibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Trigger grating calibration and print the re-read range",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().CalibrateGrating(context.Background())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}
