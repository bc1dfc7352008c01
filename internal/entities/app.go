package entities

import "github.com/guregu/null"

type InitStateType string

const (
	InitStateBrandNew        InitStateType = "BrandNew"
	InitStateCreatedPassword InitStateType = "CreatedPassword"
	InitStateCreatedWallet   InitStateType = "CreatedWallet"
)

// InitState describes how far the wallet setup has progressed on this machine.
type InitState struct {
	Type     InitStateType `json:"type" validate:"oneof=BrandNew CreatedPassword CreatedWallet"`
	Password null.String   `json:"password"`
}
