package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the checkpoint envelope format. Bump on breaking changes.
const Version = 1

// Checkpoint is a persisted snapshot of workflow state taken after a node
// completed. For conversation sessions the run ID is the session ID, so
// the latest checkpoint of a run is the last committed turn.
type Checkpoint struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`

	Attempt    int    `json:"attempt"`
	PrevNodeID string `json:"prev_node_id,omitempty"`
}

// New builds a checkpoint envelope around already-encoded state.
func New(runID, nodeID string, sequence int, state []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
		Attempt:   1,
	}
}

// WithAttempt records which attempt produced the checkpoint.
func (c *Checkpoint) WithAttempt(attempt int) *Checkpoint {
	c.Attempt = attempt
	return c
}

// WithPrevNode records the node that ran before NodeID.
func (c *Checkpoint) WithPrevNode(prevNodeID string) *Checkpoint {
	c.PrevNodeID = prevNodeID
	return c
}

// Marshal encodes the envelope as JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Decode unmarshals the embedded state into v.
func (c *Checkpoint) Decode(v any) error {
	if len(c.State) == 0 {
		return fmt.Errorf("checkpoint %s/%s: empty state", c.RunID, c.NodeID)
	}
	return json.Unmarshal(c.State, v)
}

// Unmarshal decodes an envelope produced by Marshal.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
