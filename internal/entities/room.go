package entities

import (
	"time"

	"github.com/guregu/null"
)

// RoomStatus is the backend's status code for a CoinJoin room.
type RoomStatus uint8

const (
	RoomStatusWaitForNewParticipant RoomStatus = 0
	RoomStatusWaitForSignature      RoomStatus = 1
	RoomStatusSubmitting            RoomStatus = 2
	RoomStatusSuccess               RoomStatus = 3
	RoomStatusFailed                RoomStatus = 4
)

// Room is a CoinJoin session. Due1 and Due2 are durations in milliseconds; CreatedAt and
// UpdatedAt are unix timestamps in milliseconds.
type Room struct {
	ID         string      `json:"id" validate:"required"`
	BaseAmount int64       `json:"base_amount" validate:"gte=0"`
	NoPeer     uint8       `json:"no_peer"`
	Status     RoomStatus  `json:"status"`
	Due1       int64       `json:"due1" validate:"gte=0"`
	Due2       int64       `json:"due2" validate:"gte=0"`
	CreatedAt  int64       `json:"created_at" validate:"gte=0"`
	UpdatedAt  int64       `json:"updated_at" validate:"gte=0"`
	Txid       null.String `json:"txid"`
	Utxos      []Utxo      `json:"utxos,omitempty" validate:"dive"`
}

func (r Room) CreatedTime() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// RegistrationDeadline is the end of the due1 window, while peers may still join.
func (r Room) RegistrationDeadline() time.Time {
	return r.CreatedTime().Add(time.Duration(r.Due1) * time.Millisecond)
}

// SigningDeadline is the end of the due2 window that follows registration.
func (r Room) SigningDeadline() time.Time {
	return r.RegistrationDeadline().Add(time.Duration(r.Due2) * time.Millisecond)
}

// Completed reports whether the backend marked the room successful and published its txid.
func (r Room) Completed() bool {
	return r.Status == RoomStatusSuccess && r.Txid.Valid && r.Txid.String != ""
}

type RegisterResult struct {
	Room                string `json:"room" validate:"required"`
	SignedBlindedOutput string `json:"signed_blinded_output"`
}

// SignedStatus is returned by the get_signed poll.
type SignedStatus struct {
	Status int `json:"status"`
}

// SignedStatusSigned is the get_signed status reported once this account signed the room.
const SignedStatusSigned = 1

func (s SignedStatus) Signed() bool {
	return s.Status == SignedStatusSigned
}

// RoomStatusReport is the status object of a room as reported by the coordinator.
type RoomStatusReport struct {
	Status RoomStatus `json:"status"`
}

// RegisterCompleteEvent is pushed by the backend once the blinded output of a registration was
// set (Status 1) or failed to be set (Status 0).
type RegisterCompleteEvent struct {
	RoomID string `json:"room_id" validate:"required"`
	Status uint8  `json:"status"`
}

const RegisterCompleteEventName = "coinjoin-register-complete"
