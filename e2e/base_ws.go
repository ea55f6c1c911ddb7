package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"presence-lab/infrastructure/ws"
	"presence-lab/observability"
	"presence-lab/runtime"
	"presence-lab/runtime/workers"
)

// BaseWsSuite boots the full stack behind an httptest server when no
// external SERVER_ADDR is configured, and hands out websocket clients to
// scenario tests.
type BaseWsSuite struct {
	suite.Suite
	Config Config

	server *httptest.Server
	sup    *workers.Supervisor
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		return
	}

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	directory := runtime.NewDirectory()
	stats := observability.NewStats()
	gateway := runtime.NewChannelGateway(log, registry, directory, 256)
	coordinator := runtime.NewCoordinator(log, registry, directory, gateway, nil, stats, 2)

	s.sup = workers.NewSupervisor(log, 200*time.Millisecond)
	s.sup.Add(workers.NewEventFanout(log, registry, gateway.Envelopes(), 2*time.Second))
	go s.sup.Run(context.Background())

	server := ws.NewServer(log, coordinator, ws.ServerConfig{
		SinkBufferSize:    32,
		MessagesPerSecond: rate.Limit(100),
		Burst:             100,
	})
	s.server = httptest.NewServer(server.Handler())
	s.Config.ServerAddr = strings.TrimPrefix(s.server.URL, "http://")
}

func (s *BaseWsSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.sup != nil {
		s.sup.Stop()
	}
}

// StepHeader prints a colorized header for the step in logs
func (s *BaseWsSuite) StepHeader(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Dial opens a websocket client against the server under test.
func (s *BaseWsSuite) Dial(t *testing.T, name string) *wsClient {
	s.StepHeader(t, "Dialing as "+name)

	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to connect to websocket server at "+url)

	c := &wsClient{
		t:      t,
		name:   name,
		conn:   conn,
		frames: make(chan serverFrame, 64),
		debug:  s.Config.DebugJSON,
	}
	go c.readLoop()
	return c
}

// serverFrame mirrors the outbound wire envelope with the payload left raw
// so each assertion decodes only what it cares about.
type serverFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsClient struct {
	t         *testing.T
	name      string
	conn      *websocket.Conn
	frames    chan serverFrame
	debug     bool
	closeOnce sync.Once
}

func (c *wsClient) readLoop() {
	defer close(c.frames)
	for {
		var frame serverFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		if c.debug {
			c.t.Logf("%s <- %s %s", c.name, frame.Type, frame.Payload)
		}
		c.frames <- frame
	}
}

func (c *wsClient) send(frame ws.ClientFrame) {
	c.t.Helper()
	if err := c.conn.WriteJSON(frame); err != nil {
		c.t.Fatalf("%s: failed to write %q frame: %v", c.name, frame.Type, err)
	}
}

// expect consumes frames until one matches the wanted type and predicate.
// Unrelated broadcasts in between are skipped, which keeps scenarios
// readable when several clients trigger deliveries concurrently.
func (c *wsClient) expect(kind string, match func(payload json.RawMessage) bool) serverFrame {
	c.t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case frame, ok := <-c.frames:
			if !ok {
				c.t.Fatalf("%s: connection closed while waiting for %q frame", c.name, kind)
			}
			if frame.Type != kind {
				continue
			}
			if match != nil && !match(frame.Payload) {
				continue
			}
			return frame
		case <-deadline:
			c.t.Fatalf("%s: no matching %q frame within deadline", c.name, kind)
		}
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
	})
}

func noticeContains(sub string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var n struct {
			Text string `json:"text"`
		}
		return json.Unmarshal(raw, &n) == nil && strings.Contains(n.Text, sub)
	}
}

type rosterPayload struct {
	People []struct {
		ID   string  `json:"id"`
		Name string  `json:"name"`
		Room *string `json:"room"`
	} `json:"people"`
}

func rosterNames(raw json.RawMessage) []string {
	var roster rosterPayload
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil
	}
	names := make([]string, 0, len(roster.People))
	for _, p := range roster.People {
		names = append(names, p.Name)
	}
	return names
}

func rosterIsExactly(names ...string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		got := rosterNames(raw)
		if len(got) != len(names) {
			return false
		}
		for i, name := range names {
			if got[i] != name {
				return false
			}
		}
		return true
	}
}

type listingPayload struct {
	Rooms []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Members int    `json:"members"`
		Status  string `json:"status"`
	} `json:"rooms"`
}

func listingHasRoom(name string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var listing listingPayload
		if err := json.Unmarshal(raw, &listing); err != nil {
			return false
		}
		for _, room := range listing.Rooms {
			if room.Name == name {
				return true
			}
		}
		return false
	}
}

func listingIsEmpty(raw json.RawMessage) bool {
	var listing listingPayload
	return json.Unmarshal(raw, &listing) == nil && len(listing.Rooms) == 0
}

type chatPayload struct {
	Room       string `json:"room"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}

func decodeChat(t *testing.T, raw json.RawMessage) chatPayload {
	t.Helper()
	var msg chatPayload
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("malformed chat payload %s: %v", raw, err)
	}
	return msg
}

func decodeRoomAssigned(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var assigned struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &assigned); err != nil {
		t.Fatalf("malformed room assignment payload %s: %v", raw, err)
	}
	return assigned.ID
}
