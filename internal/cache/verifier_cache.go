package cache

import (
	"strings"
	"time"
)

const defaultActorTTL = 10 * time.Minute

// RelationSet is one actor's full external relation set (followed
// usernames or liked post ids), lowercased.
type RelationSet map[string]struct{}

func (s RelationSet) Contains(id string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// Add inserts a member, lowercased. Blank values are dropped.
func (s RelationSet) Add(id string) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// VerifierCache stores hot-path lookups for one verification worker:
// actor handle → stable upstream identifier, and identifier → relation
// set. Both are best-effort and time-bounded.
type VerifierCache interface {
	GetActorID(handle string) (string, bool)
	SetActorID(handle, id string)
	GetRelations(actorID string) (RelationSet, bool)
	SetRelations(actorID string, set RelationSet, ttl time.Duration)
}

type verifierCache struct {
	actors    Cache[string, string]
	relations Cache[string, RelationSet]
	actorTTL  time.Duration
}

// NewVerifierCache returns an in-memory cache scoped to one worker.
func NewVerifierCache() VerifierCache {
	return &verifierCache{
		actors:    NewTTLCache[string, string](),
		relations: NewTTLCache[string, RelationSet](),
		actorTTL:  defaultActorTTL,
	}
}

func (c *verifierCache) GetActorID(handle string) (string, bool) {
	return c.actors.Get(cacheKey(handle))
}

func (c *verifierCache) SetActorID(handle, id string) {
	if id == "" {
		return
	}
	c.actors.Set(cacheKey(handle), id, c.actorTTL)
}

func (c *verifierCache) GetRelations(actorID string) (RelationSet, bool) {
	return c.relations.Get(cacheKey(actorID))
}

func (c *verifierCache) SetRelations(actorID string, set RelationSet, ttl time.Duration) {
	if set == nil {
		return
	}
	c.relations.Set(cacheKey(actorID), set, ttl)
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
