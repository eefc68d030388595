package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/bearer-auth-api/internal/tools/common"
)

const exitLoadgenFailed = 4

type options struct {
	baseURL     string
	profile     string
	duration    time.Duration
	rps         int
	concurrency int
	seed        int64
}

func NewRootCommand() *cobra.Command {
	shared := &common.Options{Tool: "loadgen"}
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "loadgen",
		Short:         "Generate auth traffic against a running API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	shared.Bind(cmd, 0)
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "mixed", "traffic profile: auth|mixed|error-heavy")
	cmd.PersistentFlags().DurationVar(&opts.duration, "duration", 15*time.Second, "traffic duration")
	cmd.PersistentFlags().IntVar(&opts.rps, "rps", 20, "journeys started per second")
	cmd.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 6, "concurrent workers")
	cmd.PersistentFlags().Int64Var(&opts.seed, "seed", 42, "random seed for generated identities")
	cmd.AddCommand(newRunCommand(shared, opts))
	return cmd
}

func newRunCommand(shared *common.Options, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shared.Timeout <= 0 {
				shared.Timeout = opts.duration + 15*time.Second
			}
			return shared.Execute("run", exitLoadgenFailed, func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, Config{
					BaseURL:     opts.baseURL,
					Profile:     opts.profile,
					Duration:    opts.duration,
					RPS:         opts.rps,
					Concurrency: opts.concurrency,
					Seed:        opts.seed,
				})
				if err != nil {
					return nil, err
				}
				return summarize(res), nil
			})
		},
	}
}

func summarize(res Result) []string {
	return []string{
		fmt.Sprintf("journeys=%d", res.Journeys),
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
}
