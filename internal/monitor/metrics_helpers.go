package monitor

// 便捷函数供外部调用，无需访问 Metrics 实例

func IncCacheHit(cacheType string) {
	GetMetrics().IncCacheHit(cacheType)
}

func IncCacheMiss(cacheType string) {
	GetMetrics().IncCacheMiss(cacheType)
}

func IncCacheError(op string) {
	GetMetrics().IncCacheError(op)
}

func ObserveUpstream(source, status string, seconds float64) {
	GetMetrics().ObserveUpstream(source, status, seconds)
}

func IncRateLimitRetry(source string) {
	GetMetrics().IncRateLimitRetry(source)
}

func IncPagesFetched(source string) {
	GetMetrics().IncPagesFetched(source)
}

// IncResolution 增加名称解析计数（found / none / error）
func IncResolution(result string) {
	GetMetrics().IncResolution(result)
}

func IncRefreshRun(status string) {
	GetMetrics().IncRefreshRun(status)
}

func ObserveRefresh(seconds float64, processed, found int) {
	GetMetrics().ObserveRefresh(seconds, processed, found)
}

func IncLeaderboardRequest(source, status string) {
	GetMetrics().IncLeaderboardRequest(source, status)
}
