package queries

import "github.com/statewallet/wallet-session/internal/querycache"

// Resource kinds shared by every screen reading through the cache.
const (
	ResourceProfiles          = "profiles"
	ResourceProfile           = "profile"
	ResourceBalance           = "balance"
	ResourceUtxo              = "utxo"
	ResourceRooms             = "rooms"
	ResourceRoomStatus        = "room-status"
	ResourceRoomSigned        = "room-signed"
	ResourceStatecoins        = "statecoins"
	ResourceTransfers         = "transfers"
	ResourceStatecoinDetail   = "statecoin-detail"
	ResourceStatechainAddress = "statechain-address"
)

func ProfilesKey() querycache.Key {
	return querycache.NewKey(ResourceProfiles)
}

func ProfileKey(deriv string) querycache.Key {
	return querycache.NewKey(ResourceProfile, deriv)
}

func BalanceKey(address string) querycache.Key {
	return querycache.NewKey(ResourceBalance, address)
}

func UtxoKey(address string) querycache.Key {
	return querycache.NewKey(ResourceUtxo, address)
}

func RoomsKey(deriv string) querycache.Key {
	return querycache.NewKey(ResourceRooms, deriv)
}

func RoomStatusKey(roomID string) querycache.Key {
	return querycache.NewKey(ResourceRoomStatus, roomID)
}

func RoomSignedKey(deriv, roomID string) querycache.Key {
	return querycache.NewKey(ResourceRoomSigned, deriv, roomID)
}

func StatecoinsKey(deriv string) querycache.Key {
	return querycache.NewKey(ResourceStatecoins, deriv)
}

func TransfersKey(deriv string) querycache.Key {
	return querycache.NewKey(ResourceTransfers, deriv)
}

func StatecoinDetailKey(statechainID string) querycache.Key {
	return querycache.NewKey(ResourceStatecoinDetail, statechainID)
}

func StatechainAddressKey(deriv string) querycache.Key {
	return querycache.NewKey(ResourceStatechainAddress, deriv)
}
