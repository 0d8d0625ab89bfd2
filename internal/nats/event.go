package nats

import (
	"encoding/json"
)

const DefaultSubjectRefresh = "leaderboard.ens.refreshed"

// RefreshEvent 名称刷新完成事件
type RefreshEvent struct {
	Processed     int    `json:"processed"`       // 处理地址数
	EnsFound      int    `json:"ensFound"`        // 有名称的地址数（含缓存命中）
	Resolved      int    `json:"resolved"`        // 实时解析次数
	CacheHits     int    `json:"cacheHits"`       // 缓存命中数
	ResolveErrors int    `json:"resolveErrors"`   // 解析失败数
	DurationMs    int64  `json:"durationMs"`      // 耗时
	Trigger       string `json:"trigger"`         // schedule / manual / startup
	FinishedAt    int64  `json:"finishedAt"`      // 完成时间戳（秒）
	Error         string `json:"error,omitempty"` // 失败原因
}

func (e *RefreshEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
