package e2e

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"presence-lab/infrastructure/ws"
)

type testRoomLifecycleSuite struct {
	BaseWsSuite
}

func TestRoomLifecycleSuite(t *testing.T) {
	suite.Run(t, &testRoomLifecycleSuite{})
}

func (s *testRoomLifecycleSuite) TestOwnerLifecycleEvictsMembers() {
	t := s.T()

	alice := s.Dial(t, "Alice")
	defer alice.close()
	bob := s.Dial(t, "Bob")
	defer bob.close()

	var roomID string

	s.Run("Step 1: Alice joins the server", func() {
		alice.send(ws.ClientFrame{Type: ws.TypeJoin, Name: "Alice"})

		alice.expect("update", noticeContains("You have connected to the server."))
		alice.expect("update-people", rosterIsExactly("Alice"))
		alice.expect("roomList", listingIsEmpty)
	})

	s.Run("Step 2: Alice creates the Lobby", func() {
		alice.send(ws.ClientFrame{Type: ws.TypeCreateRoom, Name: "Lobby"})

		alice.expect("update", noticeContains("Welcome to Lobby."))
		frame := alice.expect("sendRoomID", nil)
		roomID = decodeRoomAssigned(t, frame.Payload)
		s.Require().NotEmpty(roomID)

		alice.expect("roomList", listingHasRoom("Lobby"))
	})

	s.Run("Step 3: Bob joins the server and sees the Lobby", func() {
		bob.send(ws.ClientFrame{Type: ws.TypeJoin, Name: "Bob"})

		bob.expect("update", noticeContains("You have connected to the server."))
		bob.expect("roomList", listingHasRoom("Lobby"))
		alice.expect("update", noticeContains("Bob is online."))
		alice.expect("update-people", rosterIsExactly("Alice", "Bob"))
	})

	s.Run("Step 4: Bob enters the Lobby", func() {
		bob.send(ws.ClientFrame{Type: ws.TypeJoinRoom, Room: roomID})

		bob.expect("update", noticeContains("Welcome to Lobby."))
		frame := bob.expect("sendRoomID", nil)
		s.Require().Equal(roomID, decodeRoomAssigned(t, frame.Payload))

		alice.expect("update", noticeContains("Bob has connected to Lobby room."))
	})

	s.Run("Step 5: Bob chats and every member receives it", func() {
		bob.send(ws.ClientFrame{Type: ws.TypeSend, Content: "hello from Bob"})

		for _, client := range []*wsClient{alice, bob} {
			frame := client.expect("chat", nil)
			msg := decodeChat(t, frame.Payload)
			s.Require().Equal("Bob", msg.SenderName)
			s.Require().Equal("hello from Bob", msg.Content)
			s.Require().Equal(roomID, msg.Room)
		}
	})

	s.Run("Step 6: Alice disconnects and the room collapses", func() {
		alice.close()

		// Bob was evicted with the teardown and sees the server-wide exit
		bob.expect("update", noticeContains("The owner (Alice) is leaving the room. The room is removed."))
		bob.expect("update", noticeContains("Alice has left the server."))
		bob.expect("update-people", rosterIsExactly("Bob"))
		bob.expect("roomList", listingIsEmpty)
	})

	s.Run("Step 7: Bob is roomless again", func() {
		bob.send(ws.ClientFrame{Type: ws.TypeSend, Content: "anyone there?"})

		bob.expect("update", noticeContains("Please connect to a room."))
	})
}
