// Package appstate holds the session-wide application state: whether the wallet was set up on
// this machine and whether the user is signed in.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/entities"
	"github.com/statewallet/wallet-session/internal/gateway"
)

var (
	ErrStoreClosed   = errors.New("app state store is closed")
	ErrNotSignedIn   = errors.New("not signed in")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrPasswordSet   = errors.New("a password is already set")
)

type State struct {
	Loading       bool
	Ready         bool
	Logged        bool
	PasswordSet   bool
	WalletCreated bool
	// SeedPhrase is kept only between CreateMaster and ClearSeedPhrase.
	SeedPhrase []string
}

type Store struct {
	gw        *gateway.Gateway
	mu        sync.Mutex
	state     State
	listeners map[uint64]func(State)
	nextID    uint64
	closed    bool
}

func NewStore(gw *gateway.Gateway) (*Store, error) {
	if gw == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	return &Store{
		gw:        gw,
		state:     State{Loading: true},
		listeners: map[uint64]func(State){},
	}, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

// Listen calls fn with the new state after every change until the returned release func is
// called. Release is idempotent.
func (s *Store) Listen(fn func(State)) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// Init loads how far the wallet setup progressed and marks the store ready.
func (s *Store) Init(ctx context.Context) error {
	initState, err := s.gw.Wallet().InitState(ctx)
	if err != nil {
		return fmt.Errorf("loading init state: %w", err)
	}
	log.Ctx(ctx).Debugf("wallet init state is %s", initState.Type)

	return s.update(func(st *State) {
		st.Loading = false
		st.Ready = true
		st.PasswordSet = initState.Type != entities.InitStateBrandNew
		st.WalletCreated = initState.Type == entities.InitStateCreatedWallet
	})
}

// SignUp sets the wallet password on a brand new wallet and signs the user in.
func (s *Store) SignUp(ctx context.Context, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if s.State().PasswordSet {
		return ErrPasswordSet
	}
	if err := s.gw.App().SignUp(ctx, password); err != nil {
		return fmt.Errorf("signing up: %w", err)
	}
	return s.update(func(st *State) {
		st.PasswordSet = true
		st.Logged = true
	})
}

// SignIn unlocks the wallet and reports whether the password was accepted.
func (s *Store) SignIn(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	ok, err := s.gw.App().SignIn(ctx, password)
	if err != nil {
		return false, fmt.Errorf("signing in: %w", err)
	}
	if !ok {
		log.Ctx(ctx).Info("sign in rejected")
		return false, nil
	}
	return true, s.update(func(st *State) {
		st.Logged = true
	})
}

func (s *Store) Logout() error {
	return s.update(func(st *State) {
		st.Logged = false
		st.SeedPhrase = nil
	})
}

// CreateMaster creates the master account and keeps its seed phrase until ClearSeedPhrase.
func (s *Store) CreateMaster(ctx context.Context) ([]string, error) {
	if !s.State().Logged {
		return nil, ErrNotSignedIn
	}
	words, err := s.gw.Account().CreateMaster(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating master account: %w", err)
	}
	if err = s.update(func(st *State) {
		st.WalletCreated = true
		st.SeedPhrase = slices.Clone(words)
	}); err != nil {
		return nil, err
	}
	return words, nil
}

func (s *Store) ClearSeedPhrase() error {
	return s.update(func(st *State) {
		st.SeedPhrase = nil
	})
}

// Teardown drops every listener. Later changes fail with ErrStoreClosed.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state.SeedPhrase = nil
	clear(s.listeners)
}

func (s *Store) update(fn func(*State)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	fn(&s.state)
	st := s.copyState()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return nil
}

func (s *Store) copyState() State {
	st := s.state
	st.SeedPhrase = slices.Clone(s.state.SeedPhrase)
	return st
}
