package cache

import (
	"context"
	"log"
	"time"
)

const (
	ArticleKeyPrefix = "article:"
	EventKeyPrefix   = "event:"

	CitiesKey       = "ref:cities"
	TagsKey         = "ref:tags"
	TypeArticlesKey = "ref:type_articles"
	TypeUsersKey    = "ref:type_users"
	StateEventsKey  = "ref:state_events"
)

const (
	ArticleTTL   = 10 * time.Minute
	EventTTL     = 5 * time.Minute
	ReferenceTTL = 30 * time.Minute
)

func ArticleKey(token string) string {
	return ArticleKeyPrefix + token
}

func EventKey(token string) string {
	return EventKeyPrefix + token
}

// Invalidate removes the given keys.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateArticle(ctx context.Context, token string) {
	Invalidate(ctx, ArticleKey(token))
}

func InvalidateEvent(ctx context.Context, token string) {
	Invalidate(ctx, EventKey(token))
}

// InvalidatePrefix removes every key under the given prefixes. It is for
// writes that change data inlined into many cached views.
func InvalidatePrefix(ctx context.Context, prefixes ...string) {
	if client == nil {
		return
	}
	for _, prefix := range prefixes {
		var keys []string
		iter := client.Scan(ctx, 0, prefix+"*", 200).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
			if len(keys) == 200 {
				client.Del(ctx, keys...)
				keys = keys[:0]
			}
		}
		if err := iter.Err(); err != nil {
			log.Printf("Redis invalidation warning: scan %q: %v", prefix, err)
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
}

// InvalidateArticles drops every cached article detail.
func InvalidateArticles(ctx context.Context) {
	InvalidatePrefix(ctx, ArticleKeyPrefix)
}

// InvalidateEvents drops every cached event detail.
func InvalidateEvents(ctx context.Context) {
	InvalidatePrefix(ctx, EventKeyPrefix)
}

// InvalidateDetails drops every cached article and event detail. Profile and
// tag writes use it since both are inlined into those views.
func InvalidateDetails(ctx context.Context) {
	InvalidatePrefix(ctx, ArticleKeyPrefix, EventKeyPrefix)
}
