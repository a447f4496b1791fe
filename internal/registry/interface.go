package registry

import "context"

// Registry mirrors which room:session conversations currently have at
// least one open connection, for external dashboard read paths. It is
// best effort and never load-bearing for in-process presence state.
type Registry interface {
	Register(ctx context.Context, room, sessionID string) error
	Deregister(ctx context.Context, room, sessionID string) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
