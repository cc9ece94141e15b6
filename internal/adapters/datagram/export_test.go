package datagram

import (
	"context"
	"net"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
)

type (
	Table       = table
	Association = association
)

func NewTable(size int) *Table { return newTable(size) }

func (t *table) Add(key string, a *Association) bool { return t.add(key, a) }
func (t *table) Get(key string) (*Association, bool) { return t.get(key) }
func (t *table) Remove(key string, a *Association)   { t.remove(key, a) }
func (t *table) Purge()                              { t.purge() }
func (t *table) Len() int                            { return t.len() }

// NewAssociation builds an association over upstream; the returned context ends when it is closed.
func NewAssociation(upstream net.Conn, span ports.Span) (*Association, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &association{upstream: upstream, cancel: cancel, span: span}, ctx
}

type Server = server

// NewServer builds the server of sc without binding its listening socket.
func NewServer(r *Relay, cfg *domain.Config, sc domain.ServerConfig, engine ports.EngineHandle, resolver ports.Resolver) (*Server, error) {
	return r.newServer(cfg, sc, engine, resolver)
}

func (s *server) Forward(ctx context.Context, pc net.PacketConn, client net.Addr, p []byte) {
	s.forward(ctx, pc, client, p)
}

func (s *server) Associations() *Table { return s.assocs }

func (a *association) Close() { a.close() }
