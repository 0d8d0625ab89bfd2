package upstream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

const SourceAlchemy = "alchemy"

// CollectionOwner getOwnersForCollection 返回的一个持有人
type CollectionOwner struct {
	Address    string
	TokenCount int
}

type AlchemyClient struct {
	*Client
	apiKey string
}

func NewAlchemyClient(baseURL, apiKey string, opts ...ClientOpt) *AlchemyClient {
	return &AlchemyClient{
		Client: NewClient(SourceAlchemy, baseURL, opts...),
		apiKey: apiKey,
	}
}

// GetOwnersForCollection 查询合约的全部持有人及其持有 token 数
func (c *AlchemyClient) GetOwnersForCollection(ctx context.Context, contract string) ([]CollectionOwner, error) {
	q := url.Values{}
	q.Set("contractAddress", contract)
	q.Set("withTokenBalances", "true")

	body, err := c.get(ctx, fmt.Sprintf("/nft/v2/%s/getOwnersForCollection", c.apiKey), q)
	if err != nil {
		return nil, err
	}

	owners := gjson.GetBytes(body, "ownerAddresses")
	if !owners.IsArray() {
		return nil, fmt.Errorf("%s: ownerAddresses: %w", c.source, ErrMalformed)
	}

	out := make([]CollectionOwner, 0, len(owners.Array()))
	owners.ForEach(func(_, owner gjson.Result) bool {
		addr := owner.Get("ownerAddress").String()
		if addr == "" {
			return true
		}
		out = append(out, CollectionOwner{
			Address:    addr,
			TokenCount: len(owner.Get("tokenBalances").Array()),
		})
		return true
	})

	return out, nil
}
