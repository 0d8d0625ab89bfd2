package sigproc

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazylions/lazy-leaderboard/pkg/goplus"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

type HandlerFunc func(os.Signal)

// ShutdownTimeout 收到信号后等待 shutdown 完成的最长时间
var ShutdownTimeout = 30 * time.Second

// GracefulShutdown 监听退出信号，执行 shutdown 后退出进程
func GracefulShutdown(shutdown HandlerFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	goplus.Go(func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("received signal")

		done := make(chan struct{})
		goplus.Go(func() {
			defer close(done)
			shutdown(sig)
		})

		select {
		case <-done:
		case <-time.After(ShutdownTimeout):
			logger.Warn().Dur("timeout", ShutdownTimeout).Msg("shutdown timed out")
		}

		os.Exit(0)
	})
}
