package coinjoin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/stellar/go-stellar-sdk/support/log"
	"golang.org/x/time/rate"

	"github.com/statewallet/wallet-session/internal/derivation"
	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/metrics"
	"github.com/statewallet/wallet-session/internal/queries"
	"github.com/statewallet/wallet-session/internal/querycache"
)

// RoomView is a room together with its phase at the time it was polled.
type RoomView struct {
	Room              entities.Room
	Phase             Phase
	Signed            bool
	CoordinatorStatus entities.RoomStatus
	Deadlines         Deadlines
}

type RoomWatcherConfig struct {
	Gateway        *gateway.Gateway
	Reader         *queries.Reader
	MetricsService metrics.MetricsService
	PollInterval   time.Duration
	PollsPerSecond float64
	MaxConcurrency int
}

// RoomWatcher polls the rooms of an account and re-evaluates their phases, re-polling early
// whenever the host reports a completed registration.
type RoomWatcher struct {
	gw             *gateway.Gateway
	reader         *queries.Reader
	metricsService metrics.MetricsService
	pollInterval   time.Duration
	limiter        *rate.Limiter
	pool           pond.Pool
	now            func() time.Time
}

func NewRoomWatcher(cfg RoomWatcherConfig) (*RoomWatcher, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	if cfg.Reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	if cfg.MetricsService == nil {
		return nil, errors.New("metrics service cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	if cfg.PollsPerSecond <= 0 {
		return nil, fmt.Errorf("polls per second must be positive, got %v", cfg.PollsPerSecond)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}

	pool := pond.NewPool(cfg.MaxConcurrency)
	cfg.MetricsService.RegisterPoolMetrics("room_watcher", pool)
	return &RoomWatcher{
		gw:             cfg.Gateway,
		reader:         cfg.Reader,
		metricsService: cfg.MetricsService,
		pollInterval:   cfg.PollInterval,
		limiter:        rate.NewLimiter(rate.Limit(cfg.PollsPerSecond), 1),
		pool:           pool,
		now:            time.Now,
	}, nil
}

// Stop waits for running polls and releases the watcher's pool.
func (w *RoomWatcher) Stop() {
	w.pool.StopAndWait()
}

// roomSubs holds the per-room subscriptions of one watch so that their entries stay alive
// between polls.
type roomSubs struct {
	status *querycache.Subscription
	signed *querycache.Subscription
}

// Watch polls the rooms of identity until ctx is done, calling onUpdate with every evaluation.
// Every subscription taken by Watch is released when it returns.
func (w *RoomWatcher) Watch(ctx context.Context, identity entities.AccountIdentity, onUpdate func([]RoomView)) error {
	deriv := derivation.Format(identity)

	roomsSub := w.reader.Subscribe(w.reader.RoomsQuery(deriv))
	defer roomsSub.Close()

	perRoom := map[string]roomSubs{}
	defer func() {
		for _, subs := range perRoom {
			subs.status.Close()
			subs.signed.Close()
		}
	}()

	var events <-chan gateway.Event
	eventSub, err := w.gw.CoinJoin().OnRegisterComplete(ctx)
	if err != nil {
		log.Ctx(ctx).Warnf("watching %s without register notifications: %v", deriv, err)
	} else {
		defer eventSub.Close()
		events = eventSub.C()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := w.poll(ctx, deriv, roomsSub, perRoom, onUpdate); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Ctx(ctx).Errorf("polling rooms of %s: %v", deriv, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.invalidateAll(deriv, perRoom)
		case ev := <-events:
			w.handleEvent(ctx, deriv, ev)
		}
	}
}

func (w *RoomWatcher) handleEvent(ctx context.Context, deriv string, ev gateway.Event) {
	complete, err := gateway.DecodeRegisterComplete(ev)
	if err != nil {
		log.Ctx(ctx).Warnf("ignoring malformed %s event: %v", ev.Name, err)
		return
	}
	log.Ctx(ctx).Infof("room %s registration complete (status %d)", complete.RoomID, complete.Status)

	cache := w.reader.Cache()
	cache.Invalidate(queries.RoomsKey(deriv))
	cache.Invalidate(queries.RoomStatusKey(complete.RoomID))
	cache.Invalidate(queries.RoomSignedKey(deriv, complete.RoomID))
}

func (w *RoomWatcher) invalidateAll(deriv string, perRoom map[string]roomSubs) {
	cache := w.reader.Cache()
	cache.Invalidate(queries.RoomsKey(deriv))
	for roomID := range perRoom {
		cache.Invalidate(queries.RoomStatusKey(roomID))
		cache.Invalidate(queries.RoomSignedKey(deriv, roomID))
	}
}

func (w *RoomWatcher) poll(ctx context.Context, deriv string, roomsSub *querycache.Subscription, perRoom map[string]roomSubs, onUpdate func([]RoomView)) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for poll slot: %w", err)
	}

	rooms, err := querycache.FetchAs[[]entities.Room](ctx, roomsSub, w.reader.RoomsQuery(deriv).Fetch)
	if err != nil {
		return fmt.Errorf("fetching rooms: %w", err)
	}

	listed := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		listed[room.ID] = struct{}{}
		if _, ok := perRoom[room.ID]; !ok {
			perRoom[room.ID] = roomSubs{
				status: w.reader.Subscribe(w.reader.RoomStatusQuery(room.ID)),
				signed: w.reader.Subscribe(w.reader.RoomSignedQuery(deriv, room.ID)),
			}
		}
	}
	for roomID, subs := range perRoom {
		if _, ok := listed[roomID]; !ok {
			subs.status.Close()
			subs.signed.Close()
			delete(perRoom, roomID)
		}
	}

	now := w.now()
	views := make([]RoomView, len(rooms))
	var mu sync.Mutex
	var errs []error
	group := w.pool.NewGroupContext(ctx)
	for i, room := range rooms {
		subs := perRoom[room.ID]
		group.Submit(func() {
			view := RoomView{Room: room, CoordinatorStatus: room.Status, Deadlines: DeadlinesOf(room)}
			if !room.Completed() {
				statusQuery := w.reader.RoomStatusQuery(room.ID)
				report, err := querycache.FetchAs[entities.RoomStatusReport](ctx, subs.status, statusQuery.Fetch)
				if err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("room %s status: %w", room.ID, err))
					mu.Unlock()
				} else {
					view.CoordinatorStatus = report.Status
				}

				signedQuery := w.reader.RoomSignedQuery(deriv, room.ID)
				status, err := querycache.FetchAs[entities.SignedStatus](ctx, subs.signed, signedQuery.Fetch)
				if err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("room %s signed status: %w", room.ID, err))
					mu.Unlock()
				}
				view.Signed = err == nil && status.Signed()
			}
			view.Phase = PhaseAt(room, now, view.Signed)
			views[i] = view
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("waiting for room evaluation: %w", err)
	}

	w.recordPhases(views)
	onUpdate(views)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (w *RoomWatcher) recordPhases(views []RoomView) {
	counts := map[Phase]int{}
	for _, v := range views {
		counts[v.Phase]++
	}
	for _, p := range []Phase{PhaseRegistering, PhaseAwaitingSign, PhaseSigned, PhaseEnded, PhaseFailed} {
		w.metricsService.SetRoomsInPhase(p.String(), counts[p])
	}
}
