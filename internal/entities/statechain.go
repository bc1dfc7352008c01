package entities

type StateCoin struct {
	StatechainID      string `json:"statechain_id" validate:"required"`
	AggregatedAddress string `json:"aggregated_address" validate:"required"`
	Amount            int64  `json:"amount" validate:"gte=0"`
	FundingTxid       string `json:"funding_txid" validate:"txid"`
	FundingVout       int64  `json:"funding_vout" validate:"gte=0"`
	NLockTime         int64  `json:"n_lock_time" validate:"gte=0"`
}

// legacyStateCoin is the list shape returned by older backends.
type legacyStateCoin struct {
	Txid      string `json:"txid" validate:"txid"`
	Address   string `json:"address" validate:"required"`
	NLockTime int64  `json:"n_locktime" validate:"gte=0"`
	Value     int64  `json:"value" validate:"gte=0"`
}

// migrate fills what the legacy shape carries. Legacy coins had no statechain id, so the
// funding txid identifies them.
func (l legacyStateCoin) migrate() StateCoin {
	return StateCoin{
		StatechainID:      l.Txid,
		AggregatedAddress: l.Address,
		Amount:            l.Value,
		FundingTxid:       l.Txid,
		NLockTime:         l.NLockTime,
	}
}

// StateCoinTransfer is an inbound transfer awaiting verification.
type StateCoinTransfer struct {
	AuthKey         string `json:"auth_key" validate:"required"`
	TransferMessage string `json:"transfer_message" validate:"required"`
}

type StatecoinDetail struct {
	StateCoin
	TxN        int64  `json:"tx_n" validate:"gte=0"`
	BackupTxid string `json:"backup_txid,omitempty"`
}

type DepositResult struct {
	AggregatedAddress string `json:"aggregated_address" validate:"required"`
	DepositTxHex      string `json:"deposit_tx_hex"`
}

// WithdrawResult is the backend acknowledgement of a withdrawal.
type WithdrawResult struct {
	Txid string `json:"txid"`
}
