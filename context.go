package dbtx

import "context"

type key int

const (
	connectionKey key = iota
)

// ContextWithConnection adds a connection to a context.
func ContextWithConnection(ctx context.Context, cnc Connection) context.Context {
	return context.WithValue(ctx, connectionKey, cnc)
}

// ConnectionFromContext returns a connection from a context.
func ConnectionFromContext(ctx context.Context) Connection {
	if cnc := ctx.Value(connectionKey); cnc != nil {
		return cnc.(Connection)
	}
	return nil
}
