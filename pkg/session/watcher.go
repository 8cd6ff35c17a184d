package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"shareadmin/pkg/protocol"
)

// Watch opens a live stream of session events for the authenticated user.
// The returned channel is closed when the server ends the stream, the
// connection drops, or ctx is canceled.
func (n *Negotiator) Watch(ctx context.Context, token string) (<-chan protocol.SessionEvent, error) {
	wsURL := toWebsocketURL(n.baseURL) + "/api/ws/sessions"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set(protocol.HeaderDeviceID, n.devices.GetOrCreate())

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	events := make(chan protocol.SessionEvent, 8)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev protocol.SessionEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close the socket when the caller gives up so the read loop exits.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}

func toWebsocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
