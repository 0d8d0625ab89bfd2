package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

const SourceChainbase = "chainbase"

// RawHolder top-holders 的一行，Amount 保持上游原始类型（字符串或数字）
type RawHolder struct {
	Address string
	Amount  any
}

type TopHoldersPage struct {
	Holders []RawHolder
	Total   int64
}

type ChainbaseClient struct {
	*Client
	chainID  int
	contract string
}

func NewChainbaseClient(baseURL, apiKey string, chainID int, contract string, opts ...ClientOpt) *ChainbaseClient {
	opts = append([]ClientOpt{WithHeader("x-api-key", apiKey)}, opts...)
	return &ChainbaseClient{
		Client:   NewClient(SourceChainbase, baseURL, opts...),
		chainID:  chainID,
		contract: contract,
	}
}

// TopHoldersRaw 返回原始响应体
func (c *ChainbaseClient) TopHoldersRaw(ctx context.Context, page, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("chain_id", strconv.Itoa(c.chainID))
	q.Set("contract_address", c.contract)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	return c.get(ctx, "/v1/token/top-holders", q)
}

// TopHolders 拉取一页持有人；data 缺失或不是数组时返回 ErrEmptyPage
func (c *ChainbaseClient) TopHolders(ctx context.Context, page, limit int) (*TopHoldersPage, error) {
	body, err := c.TopHoldersRaw(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return ParseTopHolders(body)
}

func ParseTopHolders(body []byte) (*TopHoldersPage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w", SourceChainbase, ErrMalformed)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%s: %w", SourceChainbase, ErrEmptyPage)
	}

	rows := data.Array()
	page := &TopHoldersPage{Holders: make([]RawHolder, 0, len(rows))}
	for _, row := range rows {
		addr := row.Get("wallet_address").String()
		if addr == "" {
			continue
		}
		page.Holders = append(page.Holders, RawHolder{
			Address: addr,
			Amount:  row.Get("amount").Value(),
		})
	}

	// 总数字段名不固定，依次尝试
	for _, path := range []string{"total", "total_count", "count", "pagination.total"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Int() > 0 {
			page.Total = v.Int()
			break
		}
	}
	if page.Total == 0 {
		page.Total = int64(len(page.Holders))
	}

	return page, nil
}
