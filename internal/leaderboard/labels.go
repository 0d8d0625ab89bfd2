package leaderboard

import "github.com/lazylions/lazy-leaderboard/internal/models"

const (
	LabelLiquidityPool = "LP Pool"
	LabelLocked        = "Locked Contract"
	LabelBurn          = "Burn Address"

	LiquidityPoolAddress = "0x4356dd25897d8a804a7c7af024d27229d21d3bef"
	BurnAddress          = "0x000000000000000000000000000000000000dead"
)

// DefaultLabels 代币榜上的特殊地址，锁仓合约即代币合约本身
func DefaultLabels(tokenContract string) map[models.Address]string {
	labels := map[models.Address]string{
		models.NormalizeAddress(LiquidityPoolAddress): LabelLiquidityPool,
		models.NormalizeAddress(BurnAddress):          LabelBurn,
	}
	if tokenContract != "" {
		labels[models.NormalizeAddress(tokenContract)] = LabelLocked
	}
	return labels
}
