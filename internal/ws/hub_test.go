package ws

import "testing"

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()

	hub.Join(1, nil, ConnInfo{Username: "omar"})
	if hub.Members(1) != 1 {
		t.Fatalf("expected room to have one member")
	}

	hub.Leave(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room to be removed")
	}
}

func TestHubRemoveConnDropsAllRooms(t *testing.T) {
	hub := NewHub()

	hub.Join(1, nil, ConnInfo{})
	hub.Join(2, nil, ConnInfo{})

	hub.RemoveConn(nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected connection to be removed from every room")
	}
}
