// Package twitch connects chat to the vote intake. Two transports are
// supported: the anonymous-friendly IRC gateway (default) and EventSub
// webhooks for deployments that already have a public callback URL.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	twitchIRCURL = "wss://irc-ws.chat.twitch.tv:443"

	ircWriteTimeout         = 5 * time.Second
	initialReconnectBackoff = 1 * time.Second
	maxReconnectBackoff     = 2 * time.Minute
)

// ErrAuthFailed means Twitch rejected the bot credentials. Reconnecting
// cannot help, so Run gives up instead of hammering the gateway.
var ErrAuthFailed = errors.New("twitch irc authentication failed")

var errServerReconnect = errors.New("twitch requested reconnect")

// IRCClient reads a single channel's chat over Twitch's WebSocket IRC
// gateway and hands every message to onChat.
type IRCClient struct {
	url      string
	username string
	token    string
	channel  string
	onChat   func(ctx context.Context, sender, text string)
}

// NewIRCClient creates a client for one channel. The token must carry the
// "oauth:" prefix; channel is the bare login without "#".
func NewIRCClient(username, token, channel string, onChat func(ctx context.Context, sender, text string)) *IRCClient {
	return &IRCClient{
		url:      twitchIRCURL,
		username: username,
		token:    token,
		channel:  channel,
		onChat:   onChat,
	}
}

// Run connects and processes chat until ctx is cancelled, redialing with
// capped doubling backoff after connection loss. Only an authentication
// failure ends the loop early.
func (c *IRCClient) Run(ctx context.Context) error {
	backoff := initialReconnectBackoff

	for {
		authed, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrAuthFailed) {
			return err
		}
		if authed {
			backoff = initialReconnectBackoff
		}

		slog.Warn("IRC connection lost, reconnecting", "backoff_seconds", backoff.Seconds(), "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

// session runs one connection from dial to disconnect. The returned bool
// reports whether the login handshake completed, so the caller knows the
// credentials and backoff state are still good.
func (c *IRCClient) session(ctx context.Context) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial twitch irc: %w", err)
	}

	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readerDone:
		}
	}()

	cw := newConnWriter(conn)
	defer cw.stop()

	cw.send("PASS " + c.token)
	cw.send("NICK " + c.username)
	cw.send("JOIN #" + c.channel)

	authed := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return authed, fmt.Errorf("irc read failed: %w", err)
		}

		for line := range strings.SplitSeq(string(data), "\r\n") {
			if line == "" {
				continue
			}
			if err := c.handleLine(ctx, cw, line, &authed); err != nil {
				return authed, err
			}
		}
	}
}

func (c *IRCClient) handleLine(ctx context.Context, cw *connWriter, line string, authed *bool) error {
	msg := parseIRCLine(line)

	switch msg.command {
	case "PING":
		cw.send("PONG :" + msg.trailing)
	case "001":
		*authed = true
		slog.Info("Connected to Twitch IRC", "channel", c.channel)
	case "PRIVMSG":
		c.onChat(ctx, senderLogin(msg.prefix), msg.trailing)
	case "NOTICE":
		if isAuthFailure(msg.trailing) {
			return ErrAuthFailed
		}
	case "RECONNECT":
		return errServerReconnect
	}
	return nil
}

type ircLine struct {
	prefix   string
	command  string
	params   []string
	trailing string
}

// parseIRCLine splits one IRC line into prefix, command, params and the
// trailing text. Message tags never appear because the client does not
// request the tags capability.
func parseIRCLine(line string) ircLine {
	var msg ircLine
	rest := line

	if after, ok := strings.CutPrefix(rest, ":"); ok {
		msg.prefix, rest, ok = strings.Cut(after, " ")
		if !ok {
			return msg
		}
	}

	if at := strings.Index(rest, " :"); at >= 0 {
		msg.trailing = rest[at+2:]
		rest = rest[:at]
	}

	fields := strings.Fields(rest)
	if len(fields) > 0 {
		msg.command = fields[0]
	}
	if len(fields) > 1 {
		msg.params = fields[1:]
	}
	return msg
}

// senderLogin extracts the login from an IRC prefix ("login!user@host").
func senderLogin(prefix string) string {
	login, _, _ := strings.Cut(prefix, "!")
	return login
}

func isAuthFailure(notice string) bool {
	return strings.Contains(notice, "Login authentication failed") ||
		strings.Contains(notice, "Improperly formatted auth")
}

// --- Per-connection writer ---

type connWriter struct {
	conn   *websocket.Conn
	sendCh chan string
	done   chan struct{}
	closed chan struct{}
}

func newConnWriter(conn *websocket.Conn) *connWriter {
	cw := &connWriter{
		conn:   conn,
		sendCh: make(chan string, 16),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *connWriter) run() {
	defer close(cw.closed)
	for {
		select {
		case msg := <-cw.sendCh:
			_ = cw.conn.SetWriteDeadline(time.Now().Add(ircWriteTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

// send queues one line. Lines are dropped once the writer has died; the
// session is about to be torn down and redialed anyway.
func (cw *connWriter) send(line string) {
	select {
	case cw.sendCh <- line:
	case <-cw.closed:
	}
}

func (cw *connWriter) stop() {
	close(cw.done)
	_ = cw.conn.Close()
	<-cw.closed
}
