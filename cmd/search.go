package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/search"
	"github.com/desertthunder/karaoke/internal/sources"
	"github.com/desertthunder/karaoke/internal/ui"
)

// searchStack is the aggregator and the pieces it owns.
type searchStack struct {
	searcher ui.Searcher
	catalog  *sources.LocalCatalog
	closer   io.Closer
}

func (s *searchStack) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// newSearchStack returns the injected searcher, or builds an aggregator over the music directory,
// YouTube and the configured cache.
func (r *Runner) newSearchStack() (*searchStack, error) {
	catalog := sources.NewLocalCatalog(r.config.Server.MusicDir, r.logger)
	if r.search != nil {
		return &searchStack{searcher: r.search, catalog: catalog}, nil
	}

	cache, err := search.NewCache(r.config.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	aggregator := search.NewAggregator(search.Opts{
		Catalog: catalog,
		Remote:  r.youtube,
		Cache:   cache,
		TTL:     r.config.Cache.TTL(),
		Logger:  r.logger,
	})

	stack := &searchStack{searcher: aggregator, catalog: catalog}
	if c, ok := cache.(io.Closer); ok {
		stack.closer = c
	}
	return stack, nil
}

// Search runs one aggregated search and prints the response as JSON.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	pretty := cmd.Bool("pretty")

	stack, err := r.newSearchStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	r.logger.Info("searching", "query", query)

	resp, err := stack.searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return r.writeJSON(resp, pretty)
}
