package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	"github.com/ganhesocial/ganhesocial/internal/cache"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
)

const (
	scraptikHost  = "scraptik.p.rapidapi.com"
	tiktokAPIHost = "tiktok-api23.p.rapidapi.com"
)

// stringOrNumber tolerates upstream fields that flip between JSON
// string and number across API versions.
type stringOrNumber string

func (s *stringOrNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = stringOrNumber(v)
		return nil
	}
	*s = stringOrNumber(b)
	return nil
}

// tiktokFollow verifies follows via the scraptik API: the handle is
// first traded for a sec_uid, then the following list is paged with
// max_time cursors.
type tiktokFollow struct {
	client *Client
}

func NewTikTokFollow(client *Client) Strategy {
	return &tiktokFollow{client: client}
}

func (s *tiktokFollow) Network() orderdomain.Network       { return orderdomain.NetworkTikTok }
func (s *tiktokFollow) ActionType() orderdomain.ActionType { return orderdomain.ActionFollow }

func (s *tiktokFollow) GroupKey(entry actiondomain.Entry) (string, bool) {
	key := ActorKey(entry.AccountName)
	return key, key != ""
}

type scraptikUser struct {
	User struct {
		SecUID  string `json:"sec_uid"`
		SecUID2 string `json:"secUid"`
	} `json:"user"`
	SecUID  string `json:"sec_uid"`
	SecUID2 string `json:"secUid"`
}

func (s *tiktokFollow) ResolveSubject(ctx context.Context, key string) (string, error) {
	// Already a sec_uid, nothing to resolve.
	if tiktokSecUIDForm.MatchString(key) {
		return key, nil
	}
	var resp scraptikUser
	err := s.client.getJSON(ctx, scraptikHost, "/get-user", url.Values{"username": {key}}, &resp)
	if err != nil {
		return "", err
	}
	for _, sec := range []string{resp.User.SecUID, resp.User.SecUID2, resp.SecUID, resp.SecUID2} {
		if sec != "" {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: no sec_uid for %q", ErrActorUnavailable, key)
}

type scraptikFollowingPage struct {
	Followings []struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"followings"`
	HasMore bool           `json:"has_more"`
	MinTime stringOrNumber `json:"min_time"`
}

func (s *tiktokFollow) FetchRelations(ctx context.Context, subjectID string) (cache.RelationSet, error) {
	cfg := s.client.holder.Get()
	set := cache.RelationSet{}

	maxTime := "0"
	for page := 0; page < cfg.MaxRelationPages; page++ {
		params := url.Values{
			"sec_user_id": {subjectID},
			"count":       {strconv.Itoa(cfg.RelationPageSize)},
			"max_time":    {maxTime},
		}
		var resp scraptikFollowingPage
		if err := s.client.getJSON(ctx, scraptikHost, "/list-following", params, &resp); err != nil {
			if len(set) > 0 {
				break
			}
			return nil, err
		}
		for _, f := range resp.Followings {
			name := f.UniqueID
			if name == "" {
				name = f.Nickname
			}
			set.Add(name)
		}
		if !resp.HasMore || resp.MinTime == "" {
			break
		}
		maxTime = string(resp.MinTime)
	}
	return set, nil
}

func (s *tiktokFollow) MemberKey(entry actiondomain.Entry) (string, bool) {
	target := UsernameFromURL(entry.URL)
	return target, target != ""
}

// tiktokLike verifies likes from the actor's side: the liked-posts
// feed is paged and the target video id looked up in it.
type tiktokLike struct {
	client *Client
}

func NewTikTokLike(client *Client) Strategy {
	return &tiktokLike{client: client}
}

func (s *tiktokLike) Network() orderdomain.Network       { return orderdomain.NetworkTikTok }
func (s *tiktokLike) ActionType() orderdomain.ActionType { return orderdomain.ActionLike }

func (s *tiktokLike) GroupKey(entry actiondomain.Entry) (string, bool) {
	key := ActorKey(entry.AccountName)
	return key, key != ""
}

type tiktokUserInfo struct {
	UserInfo struct {
		User struct {
			SecUID string `json:"secUid"`
		} `json:"user"`
	} `json:"userInfo"`
	Data struct {
		User struct {
			SecUID string `json:"secUid"`
		} `json:"user"`
	} `json:"data"`
}

func (s *tiktokLike) ResolveSubject(ctx context.Context, key string) (string, error) {
	var resp tiktokUserInfo
	err := s.client.getJSON(ctx, tiktokAPIHost, "/api/user/info", url.Values{"uniqueId": {key}}, &resp)
	if err != nil {
		return "", err
	}
	if sec := resp.UserInfo.User.SecUID; sec != "" {
		return sec, nil
	}
	if sec := resp.Data.User.SecUID; sec != "" {
		return sec, nil
	}
	return "", fmt.Errorf("%w: no sec_uid for %q", ErrActorUnavailable, key)
}

type tiktokLikedPage struct {
	ItemList []struct {
		ID    stringOrNumber `json:"id"`
		Video struct {
			ID stringOrNumber `json:"id"`
		} `json:"video"`
	} `json:"itemList"`
	HasMore bool           `json:"hasMore"`
	Cursor  stringOrNumber `json:"cursor"`
}

func (s *tiktokLike) FetchRelations(ctx context.Context, subjectID string) (cache.RelationSet, error) {
	cfg := s.client.holder.Get()
	set := cache.RelationSet{}

	cursor := "0"
	for page := 0; page < cfg.MaxRelationPages; page++ {
		params := url.Values{
			"secUid": {subjectID},
			"count":  {strconv.Itoa(cfg.RelationPageSize)},
			"cursor": {cursor},
		}
		var resp tiktokLikedPage
		if err := s.client.getJSON(ctx, tiktokAPIHost, "/api/user/liked-posts", params, &resp); err != nil {
			if len(set) > 0 {
				break
			}
			return nil, err
		}
		for _, item := range resp.ItemList {
			id := string(item.ID)
			if id == "" {
				id = string(item.Video.ID)
			}
			set.Add(id)
		}
		if !resp.HasMore || resp.Cursor == "" {
			break
		}
		cursor = string(resp.Cursor)
	}
	return set, nil
}

func (s *tiktokLike) MemberKey(entry actiondomain.Entry) (string, bool) {
	id := VideoIDFromURL(entry.URL)
	return id, id != ""
}
