package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/statewallet/wallet-session/internal/entities"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	subscriptionBuffer = 16
)

// WSEventSource opens one websocket per subscription on <url>?event=<name> and forwards
// frames of the form {"event": ..., "payload": ...} whose event matches.
type WSEventSource struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
}

var _ EventSource = (*WSEventSource)(nil)

func NewWSEventSource(eventsURL string, header http.Header) (*WSEventSource, error) {
	u, err := url.Parse(eventsURL)
	if err != nil {
		return nil, fmt.Errorf("parsing events URL %q: %w", eventsURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("events URL %q must use the ws or wss scheme", eventsURL)
	}
	return &WSEventSource{
		url:    eventsURL,
		header: header,
		dialer: &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout},
	}, nil
}

func (s *WSEventSource) Subscribe(ctx context.Context, event string) (*Subscription, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parsing events URL: %w", err)
	}
	q := u.Query()
	q.Set("event", event)
	u.RawQuery = q.Encode()

	conn, resp, err := s.dialer.DialContext(ctx, u.String(), s.header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck
	}

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			//nolint:errcheck
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close() //nolint:errcheck
		})
	}
	sub := NewSubscription(subscriptionBuffer, closeConn)

	go s.readLoop(ctx, conn, event, sub)
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()
	return sub, nil
}

func (s *WSEventSource) readLoop(ctx context.Context, conn *websocket.Conn, event string, sub *Subscription) {
	defer sub.Close()
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			select {
			case <-sub.Done():
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Ctx(ctx).Warnf("[events] %s subscription ended: %v", event, err)
				}
			}
			return
		}
		if ev.Name != event {
			continue
		}
		if !sub.Deliver(ctx, ev) {
			return
		}
	}
}

// DecodeRegisterComplete decodes the payload of a coinjoin-register-complete event.
func DecodeRegisterComplete(ev Event) (entities.RegisterCompleteEvent, error) {
	return entities.DecodeLenient[entities.RegisterCompleteEvent](ev.Payload)
}
