// Package main implements the apptctl CLI for manual operations against the
// apptd HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the apptd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apptctl",
	Short: "CLI for apptd HTTP server operations",
	Long: `apptctl is a command-line interface for interacting with the apptd HTTP server.
It provides commands for parsing appointment requests and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "apptd server URL")
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check apptd server health",
	Long: `Check the health status of the apptd HTTP server.

Examples:
  # Check health
  apptctl health

  # Check health on a different server
  apptctl health --server http://localhost:9000`,
	RunE: runHealth,
}

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status    string `json:"status"`
	Extractor bool   `json:"extractor_available"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}

	fmt.Printf("Status:    %s\n", health.Status)
	fmt.Printf("Extractor: %v\n", health.Extractor)
	return nil
}
