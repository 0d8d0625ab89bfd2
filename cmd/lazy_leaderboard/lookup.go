package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

type lookupLine struct {
	Address string  `json:"address"`
	EnsName *string `json:"ensName"`
	Cache   string  `json:"cache"`
	Error   string  `json:"error,omitempty"`
}

// runLookup 默认只读缓存，--live 时未命中地址走链上解析并写回
func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	live, _ := cmd.Flags().GetBool("live")

	a := newApp(cfg)
	defer a.close()

	if err = a.initStore(); err != nil {
		return err
	}
	if live {
		if err = a.initSources(); err != nil {
			return err
		}
		if err = a.initResolver(ctx); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	for _, raw := range args {
		addr := models.NormalizeAddress(raw)
		line := lookupLine{Address: raw, Cache: "miss"}

		if live {
			res, lerr := a.names.ResolveOrLookup(ctx, addr, a.resolver)
			if lerr != nil {
				return lerr
			}
			line.EnsName = res.Entry.Ptr()
			line.Cache = "live"
			if res.FromCache {
				line.Cache = "hit"
			}
			if res.ResolveErr != nil {
				line.Error = res.ResolveErr.Error()
			}
		} else {
			res, rerr := a.names.Resolve(ctx, addr)
			switch {
			case rerr != nil:
				line.Error = rerr.Error()
			case res.Hit:
				line.EnsName = res.Ptr()
				line.Cache = "hit"
			}
		}

		if err = enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
