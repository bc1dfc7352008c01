package entities

// AccountIdentity is the hierarchical identity of an account, rendered canonically as
// "<account_number>/<sub_account_number>".
type AccountIdentity struct {
	AccountNumber    uint32 `json:"account_number"`
	SubAccountNumber uint32 `json:"sub_account_number"`
}

type AddressType string

const (
	AddressTypeP2PKH  AddressType = "P2PKH"
	AddressTypeP2WPKH AddressType = "P2WPKH"
)

type Network string

const (
	NetworkBitcoin Network = "bitcoin"
	NetworkTestnet Network = "testnet"
	NetworkSignet  Network = "signet"
	NetworkRegtest Network = "regtest"
)

// Account is created by the backend and is read-only to the session layer.
type Account struct {
	AccountIdentity
	Address     string      `json:"address" validate:"required"`
	AddressType AddressType `json:"address_type" validate:"oneof=P2PKH P2WPKH"`
	Network     Network     `json:"network" validate:"oneof=bitcoin testnet signet regtest"`
}
