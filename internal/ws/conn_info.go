package ws

import "time"

// ConnInfo is the identity and bookkeeping attached to one connection at
// handshake time.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	Username    string
	Role        string
	IP          string
	ConnectedAt time.Time
}
