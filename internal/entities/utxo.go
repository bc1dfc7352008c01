package entities

type UtxoStatus struct {
	Confirmed bool `json:"confirmed"`
}

type Utxo struct {
	Txid   string     `json:"txid" validate:"txid"`
	Vout   uint32     `json:"vout"`
	Value  int64      `json:"value" validate:"gte=0"`
	Status UtxoStatus `json:"status"`
}
