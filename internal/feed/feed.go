package feed

import (
	"context"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

// PurchaseEvent is the payment processor's notification that a presale
// transaction reached a terminal state on chain.
type PurchaseEvent struct {
	Type        string `json:"type"`
	PurchaseID  string `json:"purchase_id"`
	Chain       string `json:"chain"`
	TxReference string `json:"tx_reference"`
}

type PurchaseConfirmer interface {
	ConfirmPurchase(ctx context.Context, purchaseID uuid.UUID, chain model.Chain, txReference string) error
}

// Listener keeps a websocket subscription to the payment processor's event
// stream and drives purchase confirmation from it.
type Listener struct {
	url       string
	purchases PurchaseConfirmer
}

func NewListener(url string, purchases PurchaseConfirmer) *Listener {
	return &Listener{
		url:       url,
		purchases: purchases,
	}
}

// Run blocks until ctx is cancelled, reconnecting after read failures.
func (l *Listener) Run(ctx context.Context) {
	log := logger.Logger()

	for {
		if ctx.Err() != nil {
			return
		}

		err := l.consume(ctx)
		if err != nil && ctx.Err() == nil {
			log.Warn("payment feed disconnected, reconnecting",
				zap.String("url", l.url), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) consume(ctx context.Context) error {
	log := logger.Logger()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watchdog unblocks ReadMessage on cancellation and must itself
	// exit when this connection is torn down on a read error.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Info("connected to payment feed", zap.String("url", l.url))

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event PurchaseEvent
		if err := json.Unmarshal(p, &event); err != nil {
			log.Warn("malformed feed event", zap.Error(err))
			continue
		}

		l.handle(ctx, event)
	}
}

func (l *Listener) handle(ctx context.Context, event PurchaseEvent) {
	log := logger.Logger()

	if event.Type != "purchase.confirmed" {
		return
	}

	purchaseID, err := uuid.Parse(event.PurchaseID)
	if err != nil {
		log.Warn("feed event with invalid purchase_id",
			zap.String("purchase_id", event.PurchaseID))
		return
	}

	err = l.purchases.ConfirmPurchase(ctx, purchaseID, model.Chain(event.Chain), event.TxReference)
	if err != nil {
		log.Error("failed to confirm purchase from feed",
			zap.String("purchase_id", event.PurchaseID),
			zap.Error(err))
	}
}
