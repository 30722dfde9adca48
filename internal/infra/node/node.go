package node

import (
	"os"
	"sync"

	"github.com/google/uuid"
)

// Version and CommitHash are set at build time with -ldflags -X.
var Version = "development"
var CommitHash = "unknown"

// Node identifies the running process in logs and telemetry.
type Node struct {
	ID         string
	Hostname   string
	Version    string
	CommitHash string
}

var (
	nodeID     string
	nodeIDOnce sync.Once
)

func GetNodeInfo() *Node {
	return &Node{
		ID:         getNodeID(),
		Hostname:   getHostname(),
		Version:    Version,
		CommitHash: CommitHash,
	}
}

func getNodeID() string {
	nodeIDOnce.Do(func() {
		nodeID = uuid.NewString()
	})
	return nodeID
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}
	return hostname
}
