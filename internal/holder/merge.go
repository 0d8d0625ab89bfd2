package holder

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/lazylions/lazy-leaderboard/internal/models"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidSort   = errors.New("invalid sort key")

	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

type SortKey string

const (
	SortWallet SortKey = "wallet"
	SortLocked SortKey = "locked"
	SortTotal  SortKey = "total"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey 空值默认 total，兼容 count / walletAmount / lockedAmount
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "total":
		return SortTotal, nil
	case "wallet", "count", "walletamount":
		return SortWallet, nil
	case "locked", "lockedamount":
		return SortLocked, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// ParseDirection 空值默认 desc
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	default:
		return "", fmt.Errorf("%w: direction %q", ErrInvalidSort, s)
	}
}

// ParseAmount 解析上游金额（数字或数字字符串），四舍五入（远离零）到整数
func ParseAmount(v any) (int64, error) {
	var (
		d   decimal.Decimal
		err error
	)

	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidAmount)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case decimal.Decimal:
		d = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, x)
		}
		d = decimal.NewFromFloat(x)
	default:
		var f float64
		f, err = cast.ToFloat64E(v)
		if err == nil {
			d = decimal.NewFromFloat(f)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}

	d = d.Round(0)
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidAmount, v)
	}
	return d.IntPart(), nil
}

// Merge 以钱包持仓为主叠加锁仓金额。
// 输出保持钱包顺序；仅出现在锁仓中的地址被丢弃；同一地址的多行钱包记录合并到首次出现的位置。
func Merge(wallet []models.TokenHolder, locked map[models.Address]int64) []models.HolderRecord {
	out := make([]models.HolderRecord, 0, len(wallet))
	index := make(map[models.Address]int, len(wallet))

	for _, h := range wallet {
		if i, ok := index[h.Address]; ok {
			out[i].WalletAmount += h.Amount
			out[i].Recompute()
			continue
		}
		index[h.Address] = len(out)
		out = append(out, models.NewHolderRecord(h.Address, h.Amount, locked[h.Address]))
	}

	return out
}

// Sort 稳定排序，返回新切片，相等时保持输入顺序
func Sort(records []models.HolderRecord, key SortKey, dir Direction) []models.HolderRecord {
	out := make([]models.HolderRecord, len(records))
	copy(out, records)

	value := func(r models.HolderRecord) int64 {
		switch key {
		case SortWallet:
			return r.WalletAmount
		case SortLocked:
			return r.LockedAmount
		default:
			return r.Total
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == Asc {
			return value(out[i]) < value(out[j])
		}
		return value(out[i]) > value(out[j])
	})

	return out
}
