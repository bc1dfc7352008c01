package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
	"github.com/statewallet/wallet-session/internal/querycache"
)

// Query pairs a cache key with the fetcher that loads it.
type Query struct {
	Key   querycache.Key
	Fetch querycache.Fetcher
}

// Reader builds the cache queries for every resource kind and offers typed blocking reads.
type Reader struct {
	cache *querycache.Cache
	gw    *gateway.Gateway
}

func NewReader(cache *querycache.Cache, gw *gateway.Gateway) (*Reader, error) {
	if cache == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if gw == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	return &Reader{
		cache: cache,
		gw:    gw,
	}, nil
}

func (r *Reader) Cache() *querycache.Cache {
	return r.cache
}

// Subscribe attaches to q's entry. The subscription must be closed.
func (r *Reader) Subscribe(q Query) *querycache.Subscription {
	return r.cache.Subscribe(q.Key)
}

func read[T any](ctx context.Context, r *Reader, q Query) (T, error) {
	sub := r.cache.Subscribe(q.Key)
	defer sub.Close()
	return querycache.FetchAs[T](ctx, sub, q.Fetch)
}

func fetcher[T any](fn func(ctx context.Context) (T, error)) querycache.Fetcher {
	return func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (r *Reader) ProfilesQuery() Query {
	return Query{Key: ProfilesKey(), Fetch: fetcher(r.gw.Account().Accounts)}
}

func (r *Reader) ProfileQuery(deriv string) Query {
	return Query{Key: ProfileKey(deriv), Fetch: fetcher(func(ctx context.Context) (entities.Account, error) {
		return r.gw.Account().Account(ctx, deriv)
	})}
}

func (r *Reader) BalanceQuery(address string) Query {
	return Query{Key: BalanceKey(address), Fetch: fetcher(func(ctx context.Context) (int64, error) {
		return r.gw.Account().Balance(ctx, address)
	})}
}

func (r *Reader) UtxoQuery(address string) Query {
	return Query{Key: UtxoKey(address), Fetch: fetcher(func(ctx context.Context) ([]entities.Utxo, error) {
		return r.gw.Account().Utxos(ctx, address)
	})}
}

func (r *Reader) RoomsQuery(deriv string) Query {
	return Query{Key: RoomsKey(deriv), Fetch: fetcher(func(ctx context.Context) ([]entities.Room, error) {
		return r.gw.CoinJoin().Rooms(ctx, deriv)
	})}
}

func (r *Reader) RoomStatusQuery(roomID string) Query {
	return Query{Key: RoomStatusKey(roomID), Fetch: fetcher(func(ctx context.Context) (entities.RoomStatusReport, error) {
		return r.gw.CoinJoin().Status(ctx, roomID)
	})}
}

func (r *Reader) RoomSignedQuery(deriv, roomID string) Query {
	return Query{Key: RoomSignedKey(deriv, roomID), Fetch: fetcher(func(ctx context.Context) (entities.SignedStatus, error) {
		return r.gw.CoinJoin().Signed(ctx, deriv, roomID)
	})}
}

func (r *Reader) StatecoinsQuery(deriv string) Query {
	return Query{Key: StatecoinsKey(deriv), Fetch: fetcher(func(ctx context.Context) ([]entities.StateCoin, error) {
		return r.gw.Statechain().Statecoins(ctx, deriv)
	})}
}

func (r *Reader) TransfersQuery(deriv string) Query {
	return Query{Key: TransfersKey(deriv), Fetch: fetcher(func(ctx context.Context) ([]entities.StateCoinTransfer, error) {
		return r.gw.Statechain().Transfers(ctx, deriv)
	})}
}

func (r *Reader) StatecoinDetailQuery(statechainID string) Query {
	return Query{Key: StatecoinDetailKey(statechainID), Fetch: fetcher(func(ctx context.Context) (entities.StatecoinDetail, error) {
		return r.gw.Statechain().StatecoinDetail(ctx, statechainID)
	})}
}

func (r *Reader) StatechainAddressQuery(deriv string) Query {
	return Query{Key: StatechainAddressKey(deriv), Fetch: fetcher(func(ctx context.Context) (string, error) {
		return r.gw.Statechain().GenerateAddress(ctx, deriv)
	})}
}

func (r *Reader) Profiles(ctx context.Context) ([]entities.Account, error) {
	return read[[]entities.Account](ctx, r, r.ProfilesQuery())
}

func (r *Reader) Account(ctx context.Context, deriv string) (entities.Account, error) {
	return read[entities.Account](ctx, r, r.ProfileQuery(deriv))
}

func (r *Reader) Balance(ctx context.Context, address string) (int64, error) {
	return read[int64](ctx, r, r.BalanceQuery(address))
}

func (r *Reader) Utxos(ctx context.Context, address string) ([]entities.Utxo, error) {
	return read[[]entities.Utxo](ctx, r, r.UtxoQuery(address))
}

func (r *Reader) Rooms(ctx context.Context, deriv string) ([]entities.Room, error) {
	return read[[]entities.Room](ctx, r, r.RoomsQuery(deriv))
}

func (r *Reader) RoomStatus(ctx context.Context, roomID string) (entities.RoomStatusReport, error) {
	return read[entities.RoomStatusReport](ctx, r, r.RoomStatusQuery(roomID))
}

// Signed reports whether a successful signed poll is recorded for the room.
func (r *Reader) Signed(ctx context.Context, deriv, roomID string) (bool, error) {
	status, err := read[entities.SignedStatus](ctx, r, r.RoomSignedQuery(deriv, roomID))
	if err != nil {
		return false, err
	}
	return status.Signed(), nil
}

func (r *Reader) Statecoins(ctx context.Context, deriv string) ([]entities.StateCoin, error) {
	return read[[]entities.StateCoin](ctx, r, r.StatecoinsQuery(deriv))
}

func (r *Reader) Transfers(ctx context.Context, deriv string) ([]entities.StateCoinTransfer, error) {
	return read[[]entities.StateCoinTransfer](ctx, r, r.TransfersQuery(deriv))
}

func (r *Reader) StatecoinDetail(ctx context.Context, statechainID string) (entities.StatecoinDetail, error) {
	return read[entities.StatecoinDetail](ctx, r, r.StatecoinDetailQuery(statechainID))
}

// StatecoinDetails loads the details of several statecoins in one batch. A loader is built per
// call so that its results never outlive the cache's invalidations.
func (r *Reader) StatecoinDetails(ctx context.Context, statechainIDs []string) ([]entities.StatecoinDetail, error) {
	details, err := statecoinDetailLoader(r.gw).LoadAll(ctx, statechainIDs)
	if err != nil {
		return nil, fmt.Errorf("loading statecoin details: %w", err)
	}
	return details, nil
}

func (r *Reader) StatechainAddress(ctx context.Context, deriv string) (string, error) {
	return read[string](ctx, r, r.StatechainAddressQuery(deriv))
}
