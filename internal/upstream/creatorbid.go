package upstream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

const SourceCreatorBid = "creatorbid"

// LockedMember 锁仓成员，AmountLocked 为上游原始值
type LockedMember struct {
	Address      string
	AmountLocked any
}

type CreatorBidClient struct {
	*Client
	agentID string
}

func NewCreatorBidClient(baseURL, agentID string, opts ...ClientOpt) *CreatorBidClient {
	return &CreatorBidClient{
		Client:  NewClient(SourceCreatorBid, baseURL, opts...),
		agentID: agentID,
	}
}

// LockedBalances 拉取锁仓成员；members 缺失时返回空列表
func (c *CreatorBidClient) LockedBalances(ctx context.Context) ([]LockedMember, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", "1000")

	body, err := c.get(ctx, fmt.Sprintf("/api/agents/%s/members", c.agentID), q)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w", c.source, ErrMalformed)
	}

	members := gjson.GetBytes(body, "members")
	if !members.IsArray() {
		return []LockedMember{}, nil
	}

	out := make([]LockedMember, 0, len(members.Array()))
	members.ForEach(func(_, m gjson.Result) bool {
		addr := m.Get("address").String()
		if addr != "" {
			out = append(out, LockedMember{Address: addr, AmountLocked: m.Get("amountLocked").Value()})
		}
		return true
	})
	return out, nil
}
