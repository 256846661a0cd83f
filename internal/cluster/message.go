package cluster

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// MessageKind enumerates the gossip wire message types (§4.7, unchanged).
type MessageKind string

const (
	KindHeartbeat     MessageKind = "HEARTBEAT"
	KindPing          MessageKind = "PING"
	KindPong          MessageKind = "PONG"
	KindNodeAdded     MessageKind = "NODE_ADDED"
	KindNodeRemoved   MessageKind = "NODE_REMOVED"
	KindFailoverStart MessageKind = "FAILOVER_START"
	KindFailoverEnd   MessageKind = "FAILOVER_END"
	KindSyncRequest   MessageKind = "SYNC_REQUEST"
	KindSyncResponse  MessageKind = "SYNC_RESPONSE"
)

// Message is (type, senderId, receiverId, payload, timestamp). ReceiverID
// is empty for broadcasts (§4.7).
type Message struct {
	Kind       MessageKind     `json:"kind"`
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// FailoverPayload is the payload carried by FAILOVER_START/FAILOVER_END.
type FailoverPayload struct {
	FailedMasterID string `json:"failed_master_id"`
	NewMasterID    string `json:"new_master_id"`
}

// NodePayload is the payload carried by NODE_ADDED/NODE_REMOVED.
type NodePayload struct {
	ID   string `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
	Role Role   `json:"role"`
}

func newMessage(kind MessageKind, sender, receiver string, payload interface{}) (Message, error) {
	msg := Message{Kind: kind, SenderID: sender, ReceiverID: receiver, Timestamp: time.Now().UnixMilli()}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("cluster: encode %s payload: %w", kind, err)
	}
	msg.Payload = raw
	return msg, nil
}

// writeMessage sends msg as a single newline-terminated JSON line, mirroring
// this repository's line-oriented wire conventions elsewhere.
func writeMessage(w io.Writer, msg Message) error {
	enc := json.NewEncoder(w)
	return enc.Encode(msg)
}

// readMessage reads one newline-terminated JSON message.
func readMessage(r io.Reader) (Message, error) {
	var msg Message
	dec := json.NewDecoder(r)
	err := dec.Decode(&msg)
	return msg, err
}

// sendTo dials addr, writes msg and closes the connection without reading
// a reply. Used (through sendWithRetry) for broadcasts and outgoing PINGs.
func sendTo(addr string, msg Message, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("cluster: dial %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(timeout))
	return writeMessage(conn, msg)
}
