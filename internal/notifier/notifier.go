package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ganhesocial/ganhesocial/internal/config"
)

const requestTimeout = 10 * time.Second

// Notifier tells the upstream order broker that one more action on an
// order was verified so it can advance the campaign counter.
type Notifier interface {
	// OrderValidated is best effort: delivery failures are logged and
	// swallowed, the local credit already happened.
	OrderValidated(ctx context.Context, orderID string)
}

type brokerNotifier struct {
	http    *http.Client
	baseURL string
	apiKey  string
	log     *zap.Logger
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func Provide(p Params) Notifier {
	return &brokerNotifier{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(p.Config.BrokerURL, "/"),
		apiKey:  p.Config.BrokerAPIKey,
		log:     p.Log.Named("notifier"),
	}
}

func (n *brokerNotifier) OrderValidated(ctx context.Context, orderID string) {
	if n.baseURL == "" || n.apiKey == "" || orderID == "" {
		return
	}

	// The broker wants numeric ids when the order id parses as one.
	var payload map[string]any
	if num, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		payload = map[string]any{"id_acao_smm": num}
	} else {
		payload = map[string]any{"id_acao_smm": orderID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Error("marshal broker payload", zap.Error(err))
		return
	}

	url := fmt.Sprintf("%s/api/incrementar-validadas", n.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.log.Error("build broker request", zap.Error(err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		n.log.Warn("broker notify failed", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= 300 {
		n.log.Warn("broker notify rejected",
			zap.String("order_id", orderID),
			zap.Int("status", resp.StatusCode))
		return
	}
	n.log.Debug("broker notified", zap.String("order_id", orderID))
}

var Module = fx.Module("notifier",
	fx.Provide(Provide),
)
