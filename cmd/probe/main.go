// Command probe is a terminal client for poking a running presence server:
// it joins with a display name, then turns stdin lines into commands and
// renders whatever the server pushes back.
//
// Usage:
//
//	probe -addr ws://localhost:3000/ws -name alice
//
// Lines starting with / are commands (/create, /join, /leave, /remove,
// /quit); anything else is sent as a chat message.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"presence-lab/domain/event"
	"presence-lab/infrastructure/ws"
)

type inFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:3000/ws", "server websocket endpoint")
	name := flag.String("name", "probe", "display name")
	flag.Parse()

	if err := run(*addr, *name); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, name string) error {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(ws.ClientFrame{Type: ws.TypeJoin, Name: name}); err != nil {
		return err
	}

	go readEvents(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		frame, err := parseLine(line)
		if err != nil {
			color.Red.Println(err)
			continue
		}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseLine(line string) (ws.ClientFrame, error) {
	if !strings.HasPrefix(line, "/") {
		return ws.ClientFrame{Type: ws.TypeSend, Content: line}, nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "create":
		return ws.ClientFrame{Type: ws.TypeCreateRoom, Name: arg}, nil
	case "join":
		return ws.ClientFrame{Type: ws.TypeJoinRoom, Room: arg}, nil
	case "leave":
		return ws.ClientFrame{Type: ws.TypeLeaveRoom, Room: arg}, nil
	case "remove":
		return ws.ClientFrame{Type: ws.TypeRemoveRoom, Room: arg}, nil
	default:
		return ws.ClientFrame{}, fmt.Errorf("unknown command /%s", cmd)
	}
}

func readEvents(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("connection closed:", err)
			os.Exit(0)
		}

		var frame inFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		render(frame)
	}
}

func render(frame inFrame) {
	switch event.Kind(frame.Type) {
	case event.KindNotice:
		var n event.Notice
		if json.Unmarshal(frame.Payload, &n) == nil {
			color.Yellow.Println(n.Text)
		}
	case event.KindChat:
		var m event.ChatMessage
		if json.Unmarshal(frame.Payload, &m) == nil {
			color.Cyan.Printf("%s: ", m.SenderName)
			fmt.Println(m.Content)
		}
	case event.KindRoomID:
		var a event.RoomAssigned
		if json.Unmarshal(frame.Payload, &a) == nil {
			color.Green.Printf("room id: %s\n", a.ID)
		}
	case event.KindRoster:
		var r event.RosterUpdate
		if json.Unmarshal(frame.Payload, &r) == nil {
			renderRoster(r)
		}
	case event.KindRoomList:
		var l event.RoomListing
		if json.Unmarshal(frame.Payload, &l) == nil {
			renderRooms(l)
		}
	}
}

func renderRoster(r event.RosterUpdate) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "In room"})
	for _, p := range r.People {
		room := "-"
		if p.Room != nil {
			room = string(*p.Room)
		}
		table.Append([]string{p.Name, room})
	}
	table.Render()
}

func renderRooms(l event.RoomListing) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Members", "Status"})
	for _, r := range l.Rooms {
		table.Append([]string{string(r.ID), r.Name, strconv.Itoa(r.Members), r.Status})
	}
	table.Render()
}
