package config

import (
	"fmt"

	"firestige.xyz/relay/internal/protocol"
)

// DuplicateNodeError reports a node id declared more than once across
// the drone/client/server tables.
type DuplicateNodeError struct {
	Id protocol.NodeId
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %d declared more than once", e.Id)
}

// UnknownNodeError reports a connection naming a node id that was never
// declared.
type UnknownNodeError struct {
	Id           protocol.NodeId
	ReferencedBy protocol.NodeId
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %d references unknown node %d", e.ReferencedBy, e.Id)
}
