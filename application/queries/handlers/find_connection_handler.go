package handlers

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
	"github.com/kgraph/engine/internal/query"
)

// FindConnectionHandler wires find_connection to the query facade,
// resolving free-text endpoints before the path search when exact concept
// IDs were not supplied.
type FindConnectionHandler struct {
	facade *query.Facade
}

func NewFindConnectionHandler(facade *query.Facade) *FindConnectionHandler {
	return &FindConnectionHandler{facade: facade}
}

func (h *FindConnectionHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	fcq, ok := q.(queries.FindConnectionQuery)
	if !ok {
		return nil, fmt.Errorf("find_connection: unexpected query type %T", q)
	}

	var (
		path  query.Path
		found bool
		err   error
	)
	if fcq.ByText() {
		path, found, err = h.facade.FindConnectionByQuery(ctx, fcq.FromText, fcq.ToText, fcq.EffectiveMaxHops())
	} else {
		path, found, err = h.facade.FindConnection(ctx, fcq.FromSlug, fcq.ToSlug, fcq.EffectiveMaxHops())
	}
	if err != nil {
		return nil, err
	}

	return models.Path{Found: found, Slugs: path.Slugs, EdgeTypes: path.EdgeTypes}, nil
}
