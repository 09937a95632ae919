package main

import (
	"context"

	"github.com/park285/adaptive-chess/internal/adapter/chesspresenter"
	"github.com/park285/adaptive-chess/internal/apiclient"
	"github.com/park285/adaptive-chess/internal/chessbuilder"
	"github.com/park285/adaptive-chess/internal/service/session"
	"github.com/park285/adaptive-chess/pkg/chessdto"
)

// gameBackend is a game either in this process or on a remote server.
type gameBackend interface {
	Create(ctx context.Context, id string, depth *int) (*chessdto.SessionView, error)
	Get(ctx context.Context, id string) (*chessdto.SessionView, error)
	Move(ctx context.Context, id, move string) (*chessdto.MoveResponse, error)
	Bot(ctx context.Context, id string) (*chessdto.BotMoveResponse, error)
	Legal(ctx context.Context, id string) (*chessdto.LegalMoves, error)
	Hint(ctx context.Context, id string) (*chessdto.HintResponse, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type localBackend struct {
	deps *chessbuilder.Deps
}

func (b *localBackend) Create(ctx context.Context, id string, depth *int) (*chessdto.SessionView, error) {
	v, err := b.deps.Manager.Create(ctx, session.CreateRequest{ID: id, InitialDepth: depth})
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToSessionView(v), nil
}

func (b *localBackend) Get(_ context.Context, id string) (*chessdto.SessionView, error) {
	v, err := b.deps.Manager.Get(id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToSessionView(v), nil
}

func (b *localBackend) Move(ctx context.Context, id, move string) (*chessdto.MoveResponse, error) {
	r, err := b.deps.Manager.SubmitMove(ctx, id, move)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToMoveResponse(r), nil
}

func (b *localBackend) Bot(ctx context.Context, id string) (*chessdto.BotMoveResponse, error) {
	r, err := b.deps.Manager.TriggerBotMove(ctx, id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToBotMoveResponse(r), nil
}

func (b *localBackend) Legal(_ context.Context, id string) (*chessdto.LegalMoves, error) {
	moves, err := b.deps.Manager.LegalMoves(id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToLegalMoves(id, moves), nil
}

func (b *localBackend) Hint(ctx context.Context, id string) (*chessdto.HintResponse, error) {
	h, err := b.deps.Manager.Hint(ctx, id)
	if err != nil {
		return nil, err
	}
	return chesspresenter.ToHintResponse(id, h), nil
}

func (b *localBackend) Delete(ctx context.Context, id string) error {
	return b.deps.Manager.Delete(ctx, id)
}

func (b *localBackend) Close() error { return b.deps.Close() }

type remoteBackend struct {
	client *apiclient.Client
}

func (b *remoteBackend) Create(ctx context.Context, id string, depth *int) (*chessdto.SessionView, error) {
	return b.client.CreateSession(ctx, id, depth)
}

func (b *remoteBackend) Get(ctx context.Context, id string) (*chessdto.SessionView, error) {
	return b.client.GetSession(ctx, id)
}

func (b *remoteBackend) Move(ctx context.Context, id, move string) (*chessdto.MoveResponse, error) {
	return b.client.SubmitMove(ctx, id, move)
}

func (b *remoteBackend) Bot(ctx context.Context, id string) (*chessdto.BotMoveResponse, error) {
	return b.client.TriggerBotMove(ctx, id)
}

func (b *remoteBackend) Legal(ctx context.Context, id string) (*chessdto.LegalMoves, error) {
	return b.client.LegalMoves(ctx, id)
}

func (b *remoteBackend) Hint(ctx context.Context, id string) (*chessdto.HintResponse, error) {
	return b.client.Hint(ctx, id)
}

func (b *remoteBackend) Delete(ctx context.Context, id string) error {
	return b.client.DeleteSession(ctx, id)
}

func (b *remoteBackend) Close() error { return nil }
