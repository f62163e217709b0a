package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out int64 snowflake ids from a single node.
// A node is safe for concurrent use.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator builds a generator for the given node id (0-1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &IDGenerator{node: node}, nil
}

// NewIDGeneratorFromEnv uses SNOWFLAKE_NODE and falls back to node 1 when the
// variable is missing or not a number.
func NewIDGeneratorFromEnv() (*IDGenerator, error) {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return NewIDGenerator(1)
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return NewIDGenerator(1)
	}
	return NewIDGenerator(nodeID)
}

// Next returns a new id.
func (g *IDGenerator) Next() int64 {
	return g.node.Generate().Int64()
}
