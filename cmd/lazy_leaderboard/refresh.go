package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// runRefresh 执行一次名称刷新，结果以 JSON 输出到标准输出
func runRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a := newApp(cfg)
	defer a.close()

	if err = a.initStore(); err != nil {
		return err
	}
	if err = a.initSources(); err != nil {
		return err
	}
	if err = a.initResolver(ctx); err != nil {
		return err
	}

	summary, err := a.job.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Int("processed", summary.Processed).Msg("refresh failed")
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
