package holder

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/upstream"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// OwnerSource NFT 持有人接口
type OwnerSource interface {
	GetOwnersForCollection(ctx context.Context, contract string) ([]upstream.CollectionOwner, error)
}

// LockedSource 锁仓余额接口
type LockedSource interface {
	LockedBalances(ctx context.Context) ([]upstream.LockedMember, error)
}

// Aggregator 汇总 NFT 持有人与代币持有人
type Aggregator struct {
	owners OwnerSource
	pager  *Pager
	locked LockedSource
	log    zerolog.Logger
}

func NewAggregator(owners OwnerSource, pager *Pager, locked LockedSource) *Aggregator {
	return &Aggregator{
		owners: owners,
		pager:  pager,
		locked: locked,
		log:    logger.Component("aggregator"),
	}
}

// FetchOwners 一次请求拿到合约全部持有人（去重）
func (a *Aggregator) FetchOwners(ctx context.Context, contract string) (*models.AddressSet, error) {
	owners, err := a.owners.GetOwnersForCollection(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("fetch owners of %s: %w", contract, err)
	}

	set := models.NewAddressSet()
	for _, o := range owners {
		set.Add(o.Address)
	}
	return set, nil
}

// FetchOwnerCounts 持有人按持有数量降序（相等时保持上游顺序），截取前 limit 个；limit<=0 不截取
func (a *Aggregator) FetchOwnerCounts(ctx context.Context, contract string, limit int) ([]models.OwnerCount, error) {
	owners, err := a.owners.GetOwnersForCollection(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("fetch owners of %s: %w", contract, err)
	}

	index := make(map[models.Address]int, len(owners))
	counts := make([]models.OwnerCount, 0, len(owners))
	for _, o := range owners {
		addr := models.NormalizeAddress(o.Address)
		if addr == "" {
			continue
		}
		if i, ok := index[addr]; ok {
			counts[i].Count += int64(o.TokenCount)
			continue
		}
		index[addr] = len(counts)
		counts = append(counts, models.OwnerCount{Address: addr, Count: int64(o.TokenCount)})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// FetchAllTokenHolders 拉取前 maxPages 页代币持有人地址，失败页或空页提前结束
func (a *Aggregator) FetchAllTokenHolders(ctx context.Context, maxPages, pageSize int) (*models.AddressSet, error) {
	holders, err := a.pager.FetchPagesUntilEmpty(ctx, maxPages, pageSize)
	if err != nil {
		return nil, err
	}

	set := models.NewAddressSet()
	for _, h := range holders {
		set.Add(string(h.Address))
	}
	return set, nil
}

// FetchTokenHolders 严格顺序拉取 maxPages 页代币持有人，任一页失败则整体失败
func (a *Aggregator) FetchTokenHolders(ctx context.Context, maxPages, pageSize int) ([]models.TokenHolder, error) {
	return a.pager.FetchAllPagesSequential(ctx, maxPages, pageSize)
}

// FetchLockedBalances 锁仓余额，金额无法解析的成员按 0 处理
func (a *Aggregator) FetchLockedBalances(ctx context.Context) (map[models.Address]int64, error) {
	members, err := a.locked.LockedBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch locked balances: %w", err)
	}

	out := make(map[models.Address]int64, len(members))
	for _, m := range members {
		amount, err := ParseAmount(m.AmountLocked)
		if err != nil {
			a.log.Warn().Err(err).Str("address", m.Address).Msg("unparsable locked amount, using 0")
		}
		out[models.NormalizeAddress(m.Address)] = amount
	}
	return out, nil
}

// Aggregate 所有集合持有人与代币持有人的并集；NFT 持有人拉取失败直接返回错误
func (a *Aggregator) Aggregate(ctx context.Context, collections []string, maxPages, pageSize int) (*models.AddressSet, error) {
	all := models.NewAddressSet()

	for _, contract := range collections {
		owners, err := a.FetchOwners(ctx, contract)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("contract", contract).Int("owners", owners.Len()).Msg("collection owners fetched")
		all.Union(owners)
	}

	tokens, err := a.FetchAllTokenHolders(ctx, maxPages, pageSize)
	if err != nil {
		return nil, err
	}
	a.log.Info().Int("holders", tokens.Len()).Msg("token holders fetched")
	all.Union(tokens)

	return all, nil
}
