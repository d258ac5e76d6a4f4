package core

import (
	"context"
	"log/slog"

	"github.com/mdobak/go-xerrors"
)

type ListTags struct {
	tx       Transactor
	articles ArticleRepository
	cache    TagCache
	log      *slog.Logger
}

// Execute serves the tag list from the cache and fills it on a miss. Cache
// errors are logged and the repository is used instead.
func (uc *ListTags) Execute(ctx context.Context) ([]string, error) {
	tags, ok, err := uc.cache.Get(ctx)
	if err != nil {
		uc.log.Warn("failed to read tag cache", slog.String("error", err.Error()))
	}
	if ok {
		return tags, nil
	}

	err = uc.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		tags, err = uc.articles.AllTags(ctx)
		return err
	})
	if err != nil {
		return nil, xerrors.New(err)
	}
	if tags == nil {
		tags = []string{}
	}

	if err := uc.cache.Set(ctx, tags); err != nil {
		uc.log.Warn("failed to fill tag cache", slog.String("error", err.Error()))
	}
	return tags, nil
}
