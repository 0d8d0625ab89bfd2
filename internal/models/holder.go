package models

// TokenHolder 上游 top-holders 的一行，金额已取整
type TokenHolder struct {
	Address Address
	Amount  int64
}

// OwnerCount NFT 持有人及其持有数量
type OwnerCount struct {
	Address Address
	Count   int64
}

// HolderRecord 排行榜行，Total 始终等于 WalletAmount + LockedAmount
type HolderRecord struct {
	Address      Address `json:"address"`
	WalletAmount int64   `json:"walletAmount"`
	LockedAmount int64   `json:"lockedAmount"`
	Total        int64   `json:"total"`
}

func NewHolderRecord(addr Address, wallet, locked int64) HolderRecord {
	r := HolderRecord{Address: addr, WalletAmount: wallet, LockedAmount: locked}
	r.Recompute()
	return r
}

func (r *HolderRecord) Recompute() {
	r.Total = r.WalletAmount + r.LockedAmount
}
