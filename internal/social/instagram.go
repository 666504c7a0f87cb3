package social

import (
	"context"
	"net/url"
	"strconv"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	"github.com/ganhesocial/ganhesocial/internal/cache"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
)

const (
	instagramFollowingHost = "instagram-social-api.p.rapidapi.com"
	instagramLikesHost     = "instagram-scraper-20251.p.rapidapi.com"
)

// instagramFollow verifies follows by paging the actor's following
// list. The following endpoint accepts plain usernames, so resolving
// the subject needs no upstream call.
type instagramFollow struct {
	client *Client
}

func NewInstagramFollow(client *Client) Strategy {
	return &instagramFollow{client: client}
}

func (s *instagramFollow) Network() orderdomain.Network       { return orderdomain.NetworkInstagram }
func (s *instagramFollow) ActionType() orderdomain.ActionType { return orderdomain.ActionFollow }

func (s *instagramFollow) GroupKey(entry actiondomain.Entry) (string, bool) {
	key := ActorKey(entry.AccountName)
	return key, key != ""
}

func (s *instagramFollow) ResolveSubject(ctx context.Context, key string) (string, error) {
	return key, nil
}

type instagramFollowingPage struct {
	Data struct {
		Items []struct {
			Username string `json:"username"`
			UserName string `json:"user_name"`
		} `json:"items"`
	} `json:"data"`
	PaginationToken string `json:"pagination_token"`
}

func (s *instagramFollow) FetchRelations(ctx context.Context, subjectID string) (cache.RelationSet, error) {
	cfg := s.client.holder.Get()
	set := cache.RelationSet{}

	perPage := cfg.RelationPageSize
	if perPage > 1000 {
		perPage = 1000
	}

	token := ""
	for page := 0; page < cfg.MaxRelationPages; page++ {
		params := url.Values{
			"username_or_id_or_url": {subjectID},
			"amount":                {strconv.Itoa(perPage)},
			"pagination_token":      {token},
		}
		var resp instagramFollowingPage
		if err := s.client.getJSON(ctx, instagramFollowingHost, "/v1/following", params, &resp); err != nil {
			if len(set) > 0 {
				// Keep the pages already collected; a partial set can
				// still validate entries, never invalidate wrongly by
				// treating absence in a failed fetch as proof.
				break
			}
			return nil, err
		}
		for _, item := range resp.Data.Items {
			name := item.Username
			if name == "" {
				name = item.UserName
			}
			set.Add(name)
		}
		if resp.PaginationToken == "" {
			break
		}
		token = resp.PaginationToken
	}
	return set, nil
}

func (s *instagramFollow) MemberKey(entry actiondomain.Entry) (string, bool) {
	target := UsernameFromURL(entry.URL)
	return target, target != ""
}

// instagramLike verifies likes from the post's side: fetch who liked
// the post, then check the actor is among them.
type instagramLike struct {
	client *Client
}

func NewInstagramLike(client *Client) Strategy {
	return &instagramLike{client: client}
}

func (s *instagramLike) Network() orderdomain.Network       { return orderdomain.NetworkInstagram }
func (s *instagramLike) ActionType() orderdomain.ActionType { return orderdomain.ActionLike }

func (s *instagramLike) GroupKey(entry actiondomain.Entry) (string, bool) {
	code := PostCodeFromURL(entry.URL)
	return code, code != ""
}

func (s *instagramLike) ResolveSubject(ctx context.Context, key string) (string, error) {
	return key, nil
}

type instagramLikesPage struct {
	Data struct {
		Likes []struct {
			Username string `json:"username"`
		} `json:"likes"`
		EndCursor string `json:"end_cursor"`
	} `json:"data"`
	Likes []struct {
		Username string `json:"username"`
	} `json:"likes"`
	EndCursor string `json:"end_cursor"`
}

func (s *instagramLike) FetchRelations(ctx context.Context, subjectID string) (cache.RelationSet, error) {
	cfg := s.client.holder.Get()
	set := cache.RelationSet{}

	cursor := ""
	for page := 0; page < cfg.MaxRelationPages; page++ {
		params := url.Values{
			"code_or_url": {subjectID},
			"count":       {strconv.Itoa(cfg.RelationPageSize)},
			"end_cursor":  {cursor},
		}
		var resp instagramLikesPage
		if err := s.client.getJSON(ctx, instagramLikesHost, "/postlikes/", params, &resp); err != nil {
			if len(set) > 0 {
				break
			}
			return nil, err
		}
		likes := resp.Data.Likes
		if len(likes) == 0 {
			likes = resp.Likes
		}
		for _, l := range likes {
			set.Add(l.Username)
		}
		next := resp.Data.EndCursor
		if next == "" {
			next = resp.EndCursor
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return set, nil
}

func (s *instagramLike) MemberKey(entry actiondomain.Entry) (string, bool) {
	key := ActorKey(entry.AccountName)
	return key, key != ""
}
