package auth

import (
	"context"
	"net/http"
	"strconv"
)

// Actor is the identity the engine trusts as supplied by the authn layer in
// front of it. Rank only matters for approver actions.
type Actor struct {
	ID   string
	Rank int
}

type contextKey string

const actorKey contextKey = "actor"

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey).(Actor); ok {
		return a
	}
	return Actor{}
}

// FromRequest extracts the acting identity from the transport headers.
// X-Technician-ID identifies requesters, X-Approver-ID/X-Approver-Rank
// identify approvers; an approver identity wins when both are present.
func FromRequest(r *http.Request) Actor {
	if id := r.Header.Get("X-Approver-ID"); id != "" {
		rank, _ := strconv.Atoi(r.Header.Get("X-Approver-Rank"))
		return Actor{ID: id, Rank: rank}
	}
	return Actor{ID: r.Header.Get("X-Technician-ID")}
}
