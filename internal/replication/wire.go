package replication

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nodeforge/redikv/internal/rdb"
	"github.com/nodeforge/redikv/internal/storage"
)

// request is the slave->master object: (nodeId, lastSyncTimestamp).
// lastSyncTimestamp is advisory only (§4.6) — the master always returns a
// full snapshot regardless of its value.
type request struct {
	NodeID            string
	LastSyncTimestamp int64
}

// response is the master->slave object: (payload, serverTimestamp). The
// payload is C5's exact shard encoding, reused here instead of a second
// serializer (§4.6 "one encoder, two callers").
type response struct {
	Shards          []map[string]*storage.Value
	ServerTimestamp int64
}

func writeRequest(w io.Writer, req request) error {
	if err := writeString(w, req.NodeID); err != nil {
		return fmt.Errorf("replication: write request node id: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, req.LastSyncTimestamp); err != nil {
		return fmt.Errorf("replication: write request timestamp: %w", err)
	}
	return nil
}

func readRequest(r io.Reader) (request, error) {
	var req request
	nodeID, err := readString(r)
	if err != nil {
		return req, fmt.Errorf("replication: read request node id: %w", err)
	}
	var ts int64
	if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
		return req, fmt.Errorf("replication: read request timestamp: %w", err)
	}
	req.NodeID = nodeID
	req.LastSyncTimestamp = ts
	return req, nil
}

func writeResponse(w io.Writer, resp response) error {
	if err := binary.Write(w, binary.BigEndian, resp.ServerTimestamp); err != nil {
		return fmt.Errorf("replication: write response timestamp: %w", err)
	}
	if err := rdb.EncodeShards(w, resp.Shards); err != nil {
		return fmt.Errorf("replication: write response payload: %w", err)
	}
	return nil
}

func readResponse(r io.Reader) (response, error) {
	var resp response
	var ts int64
	if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
		return resp, fmt.Errorf("%w: response timestamp: %v", ErrBadResponse, err)
	}
	shards, err := rdb.DecodeShards(r)
	if err != nil {
		return resp, fmt.Errorf("%w: response payload: %v", ErrBadResponse, err)
	}
	resp.ServerTimestamp = ts
	resp.Shards = shards
	return resp, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if n < 0 || n > 1<<20 {
		return "", fmt.Errorf("replication: unreasonable string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
