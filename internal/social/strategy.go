package social

import (
	"context"
	"strings"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	"github.com/ganhesocial/ganhesocial/internal/cache"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
)

// Strategy binds one (network, action type) pair to the upstream
// lookups its verification needs. Follow checks fetch the actor's
// following list and look for the target; Instagram like checks run
// the other way around, fetching the post's likers and looking for
// the actor. GroupKey and MemberKey express both directions.
//
// Strategies are stateless; the verification engine layers caching
// and leasing on top.
type Strategy interface {
	Network() orderdomain.Network
	ActionType() orderdomain.ActionType

	// GroupKey picks which relation set the entry is checked against.
	// Entries sharing a key share one upstream fetch per cycle. ok is
	// false when the entry carries no usable key and can never verify.
	GroupKey(entry actiondomain.Entry) (string, bool)

	// ResolveSubject maps a group key to the identifier the relation
	// endpoint wants. ErrActorUnavailable means retrying will never
	// resolve it.
	ResolveSubject(ctx context.Context, key string) (string, error)

	// FetchRelations returns the subject's relation set, keyed the way
	// MemberKey keys entries.
	FetchRelations(ctx context.Context, subjectID string) (cache.RelationSet, error)

	// MemberKey is the value whose presence in the relation set proves
	// the action happened.
	MemberKey(entry actiondomain.Entry) (string, bool)
}

// ActorKey normalizes an account handle for grouping and membership:
// locally-prefixed names lose their marker, the @ goes, case folds.
func ActorKey(accountName string) string {
	s := strings.TrimSpace(accountName)
	s = strings.TrimPrefix(s, "local_")
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(strings.TrimSpace(s))
}
