package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

const defaultHealthURL = "http://localhost:8080/health"

// healthcheckCmd checks a running server; used as the container HEALTHCHECK
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the health endpoint of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		healthURL := os.Getenv("HEALTH_URL")
		if healthURL == "" {
			healthURL = defaultHealthURL
		}

		if err := checkHealth(cmd.Context(), healthURL, 3*time.Second); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Health check failed: %v\n", err)
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Health check passed")
		return nil
	},
}

func checkHealth(ctx context.Context, url string, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "invalid health URL")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
