package coinjoin

import (
	"fmt"
	"time"

	"github.com/statewallet/wallet-session/internal/entities"
)

// Phase is the lifecycle phase of a CoinJoin room as seen by one account.
type Phase int

const (
	PhaseRegistering Phase = iota
	PhaseAwaitingSign
	PhaseSigned
	PhaseEnded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseRegistering:
		return "Registering"
	case PhaseAwaitingSign:
		return "AwaitingSign"
	case PhaseSigned:
		return "Signed"
	case PhaseEnded:
		return "Ended"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// CanSign reports whether the sign action is allowed. It is only allowed while awaiting
// signatures.
func (p Phase) CanSign() bool {
	return p == PhaseAwaitingSign
}

func (p Phase) IsTerminal() bool {
	return p == PhaseEnded || p == PhaseFailed
}

// PhaseAt derives the room's phase at now. signed tells whether a successful signed poll is
// cached for this room and account. The result depends on nothing else.
func PhaseAt(room entities.Room, now time.Time, signed bool) Phase {
	if room.Completed() {
		return PhaseEnded
	}
	if now.Before(room.RegistrationDeadline()) {
		return PhaseRegistering
	}
	if signed {
		return PhaseSigned
	}
	if now.Before(room.SigningDeadline()) {
		return PhaseAwaitingSign
	}
	return PhaseFailed
}

// Deadlines are the ends of a room's two windows.
type Deadlines struct {
	Registration time.Time
	Signing      time.Time
}

func DeadlinesOf(room entities.Room) Deadlines {
	return Deadlines{
		Registration: room.RegistrationDeadline(),
		Signing:      room.SigningDeadline(),
	}
}

// Remaining returns how long the current window of phase stays open at now, or zero when the
// phase has no deadline.
func (d Deadlines) Remaining(phase Phase, now time.Time) time.Duration {
	var end time.Time
	switch phase {
	case PhaseRegistering:
		end = d.Registration
	case PhaseAwaitingSign:
		end = d.Signing
	default:
		return 0
	}
	if rem := end.Sub(now); rem > 0 {
		return rem
	}
	return 0
}
