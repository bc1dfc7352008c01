package coinjoin

import (
	"context"
	"errors"
	"fmt"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/apptracker"
	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/utils"
)

// RetryPolicy decides how often a failed sign call is repeated. ExtraAttempts is the number of
// calls made after the first one; conflicts are never retried.
type RetryPolicy struct {
	ExtraAttempts int
	Delay         time.Duration
}

// Signer runs the sign mutation with at most one call in flight per room.
type Signer struct {
	gw         *gateway.Gateway
	reader     *queries.Reader
	appTracker apptracker.AppTracker
	retry      RetryPolicy
	inFlight   set.Set[string]
	now        func() time.Time
}

func NewSigner(gw *gateway.Gateway, reader *queries.Reader, appTracker apptracker.AppTracker, retry RetryPolicy) (*Signer, error) {
	if gw == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	if appTracker == nil {
		return nil, errors.New("app tracker cannot be nil")
	}
	if retry.ExtraAttempts < 0 {
		return nil, fmt.Errorf("retry extra attempts cannot be negative, got %d", retry.ExtraAttempts)
	}
	return &Signer{
		gw:         gw,
		reader:     reader,
		appTracker: appTracker,
		retry:      retry,
		inFlight:   set.NewSet[string](),
		now:        time.Now,
	}, nil
}

// InFlight reports whether roomID is being signed.
func (s *Signer) InFlight(roomID string) bool {
	return s.inFlight.Contains(roomID)
}

// Sign signs roomID for identity. A concurrent call for the same room fails with
// ErrSignInFlight before reaching the host. The call is refused with a *StateConflictError
// unless the cached room is awaiting signatures. The result is nil when the host acknowledges
// the signature without one.
func (s *Signer) Sign(ctx context.Context, identity entities.AccountIdentity, roomID string) (*entities.RegisterResult, error) {
	if !s.inFlight.Add(roomID) {
		return nil, ErrSignInFlight
	}
	defer s.inFlight.Remove(roomID)

	deriv := derivation.Format(identity)
	phase, err := s.currentPhase(ctx, deriv, roomID)
	if err != nil {
		return nil, err
	}
	if !phase.CanSign() {
		return nil, &StateConflictError{RoomID: roomID, Phase: phase}
	}

	var result *entities.RegisterResult
	err = utils.RetryWithConfig(ctx, utils.RetryConfig{
		MaxRetries: s.retry.ExtraAttempts,
		BaseDelay:  s.retry.Delay,
	}, isRetryable, func() error {
		var signErr error
		result, signErr = s.gw.CoinJoin().SignTx(ctx, deriv, roomID)
		return signErr
	})
	if err != nil {
		if gateway.IsConflict(err) {
			return nil, &StateConflictError{RoomID: roomID, Phase: phase, Reason: "rejected by the coordinator", Err: err}
		}
		s.appTracker.CaptureException(fmt.Errorf("signing room %s: %w", roomID, err))
		return nil, fmt.Errorf("signing room %s: %w", roomID, err)
	}

	cache := s.reader.Cache()
	cache.Invalidate(queries.RoomStatusKey(roomID))
	cache.Invalidate(queries.RoomSignedKey(deriv, roomID))
	cache.Invalidate(queries.RoomsKey(deriv))
	log.Ctx(ctx).Infof("signed coinjoin room %s for %s", roomID, deriv)

	return result, nil
}

func (s *Signer) currentPhase(ctx context.Context, deriv, roomID string) (Phase, error) {
	rooms, err := s.reader.Rooms(ctx, deriv)
	if err != nil {
		return 0, fmt.Errorf("reading rooms of %s: %w", deriv, err)
	}
	var room *entities.Room
	for i := range rooms {
		if rooms[i].ID == roomID {
			room = &rooms[i]
			break
		}
	}
	if room == nil {
		return 0, &StateConflictError{RoomID: roomID, Phase: PhaseFailed, Reason: "room is not listed for this account"}
	}

	signed, err := s.reader.Signed(ctx, deriv, roomID)
	if err != nil {
		log.Ctx(ctx).Warnf("reading signed status of room %s: %v", roomID, err)
		signed = false
	}
	return PhaseAt(*room, s.now(), signed), nil
}

// isRetryable only accepts host or transport failures. A reply that failed to decode means the
// host already acted, so repeating the mutation could sign twice.
func isRetryable(err error) bool {
	var remoteErr *gateway.RemoteCommandError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return !gateway.IsConflict(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
