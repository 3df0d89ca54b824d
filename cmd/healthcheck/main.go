// Command healthcheck probes a running planets API and exits non-zero unless
// GET /healthz answers 200. It is meant for container HEALTHCHECK and exec
// probes, where no curl is available.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	targetURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "healthcheck",
	Short:        "Probe the planets API health endpoint",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		status, err := probe(ctx, http.DefaultClient, targetURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", status)
		return nil
	},
}

func init() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	rootCmd.Flags().StringVar(&targetURL, "url", "http://127.0.0.1:"+port+"/healthz", "Health endpoint to probe")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Probe timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type healthBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// probe GETs url and returns the reported status when the service is healthy.
func probe(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var body healthBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, data)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return "", fmt.Errorf("unhealthy (status %d): %s %s", resp.StatusCode, body.Status, body.Error)
	}
	return body.Status, nil
}
