package derivation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/statewallet/wallet-session/internal/entities"
)

// Tab selects the section shown on an account profile screen.
type Tab string

const (
	TabNone       Tab = ""
	TabStatechain Tab = "STATECHAIN"
	TabUtxo       Tab = "UTXO"
	TabCoinJoin   Tab = "COINJOIN"
)

func (t Tab) IsValid() bool {
	switch t {
	case TabNone, TabStatechain, TabUtxo, TabCoinJoin:
		return true
	default:
		return false
	}
}

// Screen is a sub-screen addressed under a profile route.
type Screen string

const (
	ScreenProfile          Screen = ""
	ScreenSend             Screen = "send"
	ScreenDeposit          Screen = "deposit"
	ScreenWithdraw         Screen = "withdraw"
	ScreenSendStatecoin    Screen = "send-statecoin"
	ScreenReceiveStatecoin Screen = "receive-statecoin"
	ScreenStatecoin        Screen = "statecoins"
)

const profilePrefix = "/profile/"

// Route is the parsed form of a profile route.
type Route struct {
	Identity     entities.AccountIdentity
	Screen       Screen
	StatechainID string
	Tab          Tab
}

// String renders the route as a path with an optional tab query parameter.
func (r Route) String() string {
	var b strings.Builder
	b.WriteString(profilePrefix)
	b.WriteString(EncodeIdentity(r.Identity))
	if r.Screen != ScreenProfile {
		b.WriteString("/")
		b.WriteString(string(r.Screen))
		if r.Screen == ScreenStatecoin {
			b.WriteString("/")
			b.WriteString(url.PathEscape(r.StatechainID))
		}
	}
	if r.Tab != TabNone {
		b.WriteString("?")
		b.WriteString(url.Values{"tab": []string{string(r.Tab)}}.Encode())
	}
	return b.String()
}

// ProfileRoute returns the route of an account's profile screen.
func ProfileRoute(identity entities.AccountIdentity, tab Tab) string {
	return Route{Identity: identity, Tab: tab}.String()
}

// ParseRoute parses a route produced by Route.String.
func ParseRoute(rawRoute string) (Route, error) {
	u, err := url.Parse(rawRoute)
	if err != nil {
		return Route{}, fmt.Errorf("parsing route %q: %w", rawRoute, err)
	}
	if !strings.HasPrefix(u.Path, profilePrefix) {
		return Route{}, fmt.Errorf("route %q is not a profile route", rawRoute)
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, profilePrefix), "/")
	identity, err := ParseToken(segments[0])
	if err != nil {
		return Route{}, fmt.Errorf("parsing route %q: %w", rawRoute, err)
	}

	route := Route{Identity: identity, Tab: Tab(u.Query().Get("tab"))}
	if !route.Tab.IsValid() {
		return Route{}, fmt.Errorf("route %q has unknown tab %q", rawRoute, route.Tab)
	}

	switch {
	case len(segments) == 1:
		route.Screen = ScreenProfile
	case len(segments) == 2 && isSimpleScreen(Screen(segments[1])):
		route.Screen = Screen(segments[1])
	case len(segments) == 3 && Screen(segments[1]) == ScreenStatecoin && segments[2] != "":
		route.Screen = ScreenStatecoin
		route.StatechainID = segments[2]
	default:
		return Route{}, fmt.Errorf("route %q has unknown screen", rawRoute)
	}

	return route, nil
}

func isSimpleScreen(s Screen) bool {
	switch s {
	case ScreenSend, ScreenDeposit, ScreenWithdraw, ScreenSendStatecoin, ScreenReceiveStatecoin:
		return true
	default:
		return false
	}
}
