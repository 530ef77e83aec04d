package model

// Pool is a resolved V3 pool for a token pair at one fee tier.
type Pool struct {
	ChainID uint64 `json:"chain_id"`
	Address string `json:"address"`
	PoolMeta
}
