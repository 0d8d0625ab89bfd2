package main

import (
	"flag"

	"github.com/lazylions/lazy-leaderboard/config"
	"github.com/lazylions/lazy-leaderboard/internal/dal"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

func main() {
	var configFile, outPath string
	flag.StringVar(&configFile, "config", "cfg.toml", "config file path")
	flag.StringVar(&outPath, "out", "internal/dal/query", "generated query output path")
	flag.Parse()

	if err := config.Load(configFile); err != nil {
		panic(err)
	}

	conn, err := dal.Open(config.Get().MySQL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database failed")
	}

	dal.GenExecute(outPath, conn)
}
