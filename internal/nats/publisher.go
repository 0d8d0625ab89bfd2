package nats

import (
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/lazylions/lazy-leaderboard/internal/monitor"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// Publisher NATS 发布器
type Publisher struct {
	*nats.Conn
	subject string
	mu      sync.RWMutex
	closed  bool
}

// NewPublisher 创建 NATS 发布器
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("lazy-leaderboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			monitor.GetMetrics().SetNATSConnected(false)
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			monitor.GetMetrics().SetNATSConnected(true)
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}

	if subject == "" {
		subject = DefaultSubjectRefresh
	}
	p := &Publisher{
		Conn:    conn,
		subject: subject,
	}

	monitor.GetMetrics().SetNATSConnected(true)

	return p, nil
}

// PublishRefresh 发布刷新完成事件
func (p *Publisher) PublishRefresh(ev *RefreshEvent) error {
	data, err := ev.Marshal()
	if err != nil {
		logger.Error().Err(err).Msg("marshal refresh event failed")
		return err
	}

	return p.Publish(p.subject, data)
}

// IsConnected 检查发布器是否已连接
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed && p.Conn != nil && p.Conn.IsConnected()
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true

	monitor.GetMetrics().SetNATSConnected(false)

	if p.Conn != nil {
		p.Conn.Close()
	}
	return nil
}
