package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"lmx_presale/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

type confirmedCall struct {
	PurchaseID  uuid.UUID
	Chain       model.Chain
	TxReference string
}

type fakeConfirmer struct {
	mu    sync.Mutex
	calls []confirmedCall
}

func (f *fakeConfirmer) ConfirmPurchase(ctx context.Context, purchaseID uuid.UUID, chain model.Chain, txReference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, confirmedCall{PurchaseID: purchaseID, Chain: chain, TxReference: txReference})
	return nil
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListener_ConsumeDeliversConfirmations(t *testing.T) {
	purchaseID := uuid.New()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		events := []PurchaseEvent{
			{Type: "purchase.created", PurchaseID: uuid.New().String()},
			{Type: "purchase.confirmed", PurchaseID: purchaseID.String(), Chain: "evm", TxReference: "0xtx"},
			{Type: "purchase.confirmed", PurchaseID: "not-a-uuid"},
		}
		for _, e := range events {
			p, _ := json.Marshal(e)
			if err := conn.WriteMessage(websocket.TextMessage, p); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	confirmer := &fakeConfirmer{}
	listener := NewListener(wsURL(srv), confirmer)

	err := listener.consume(context.Background())
	assert.Error(t, err, "consume returns once the server closes the stream")

	confirmer.mu.Lock()
	defer confirmer.mu.Unlock()
	assert.Equal(t, []confirmedCall{
		{PurchaseID: purchaseID, Chain: model.ChainEVM, TxReference: "0xtx"},
	}, confirmer.calls)
}

func TestListener_ReconnectCyclesDoNotLeakGoroutines(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	listener := NewListener(wsURL(srv), &fakeConfirmer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm up the dialer's transport before taking the baseline.
	_ = listener.consume(ctx)
	time.Sleep(50 * time.Millisecond)
	before := runtime.NumGoroutine()

	const attempts = 30
	for i := 0; i < attempts; i++ {
		err := listener.consume(ctx)
		assert.Error(t, err)
	}

	after := runtime.NumGoroutine()
	for i := 0; i < 50 && after > before+2; i++ {
		time.Sleep(10 * time.Millisecond)
		after = runtime.NumGoroutine()
	}
	assert.LessOrEqual(t, after, before+2,
		"goroutines grew from %d to %d across %d reconnects", before, after, attempts)
}
