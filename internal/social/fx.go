package social

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ganhesocial/ganhesocial/internal/config"
)

type ClientParams struct {
	fx.In

	Config config.Config
	Holder *config.WorkerConfigHolder
	Log    *zap.Logger
}

func ProvideClient(p ClientParams) *Client {
	return NewClient(p.Config.SocialAPIKey, p.Holder, p.Log)
}

func ProvideStrategies(client *Client) []Strategy {
	return []Strategy{
		NewInstagramFollow(client),
		NewInstagramLike(client),
		NewTikTokFollow(client),
		NewTikTokLike(client),
	}
}

var Module = fx.Module("social.client",
	fx.Provide(
		ProvideClient,
		ProvideStrategies,
	),
)
