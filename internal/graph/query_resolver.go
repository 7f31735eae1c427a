package graph

import (
	"context"
)

// QueryResolver resolves the root Query fields. Each field makes exactly one
// repository call and adapts the results in repository order.
type QueryResolver struct{}

func (q *QueryResolver) Networks(ctx context.Context) ([]*TransitNetwork, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	models, err := repos.Networks.List(ctx)
	if err != nil {
		return nil, err
	}
	return adaptAll(models, NewTransitNetwork), nil
}

func (q *QueryResolver) Network(ctx context.Context, args struct{ ID UUID }) (*TransitNetwork, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	model, err := repos.Networks.Get(ctx, args.ID.UUID)
	if err != nil || model == nil {
		return nil, err
	}
	return NewTransitNetwork(*model), nil
}

func (q *QueryResolver) NetworkByName(ctx context.Context, args struct{ Name string }) (*TransitNetwork, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	model, err := repos.Networks.GetByName(ctx, args.Name)
	if err != nil || model == nil {
		return nil, err
	}
	return NewTransitNetwork(*model), nil
}

func (q *QueryResolver) Routes(ctx context.Context) ([]*TransitRoute, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	models, err := repos.Routes.List(ctx)
	if err != nil {
		return nil, err
	}
	return adaptAll(models, NewTransitRoute), nil
}

func (q *QueryResolver) Route(ctx context.Context, args struct{ ID UUID }) (*TransitRoute, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	model, err := repos.Routes.Get(ctx, args.ID.UUID)
	if err != nil || model == nil {
		return nil, err
	}
	return NewTransitRoute(*model), nil
}

func (q *QueryResolver) Stops(ctx context.Context) ([]*TransitStop, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	models, err := repos.Stops.List(ctx)
	if err != nil {
		return nil, err
	}
	return adaptAll(models, NewTransitStop), nil
}

type rectangleArgs struct {
	MinLat Decimal
	MinLon Decimal
	MaxLat Decimal
	MaxLon Decimal
}

func (q *QueryResolver) StopsInRectangle(ctx context.Context, args rectangleArgs) ([]*TransitStop, error) {
	repos, err := RepositoriesFrom(ctx)
	if err != nil {
		return nil, err
	}

	models, err := repos.Stops.ListInRectangle(ctx,
		args.MinLat.Decimal, args.MinLon.Decimal,
		args.MaxLat.Decimal, args.MaxLon.Decimal)
	if err != nil {
		return nil, err
	}
	return adaptAll(models, NewTransitStop), nil
}
