package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/metrics"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"
	query "auction-marketplace/internal/queryService"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"

	"github.com/gin-gonic/gin"
)

// SetupTestRouter initializes the full stack over the in-memory repository,
// with the notification dispatcher consuming the event stream like in
// production. The returned cleanup stops the dispatcher.
func SetupTestRouter(t *testing.T) (*gin.Engine, *repository.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	clk := clock.NewSystem()
	broker := events.NewBroker()
	recorder := metrics.NewNop()

	biddingSvc := bidding.NewBiddingService(repo, clk, broker, recorder)
	querySvc := query.NewService(repo, clk, 5)
	notificationSvc := notification.NewService(repo)

	dispatcher := notification.NewDispatcher(repo, recorder)
	stream, cancelStream := broker.SubscribeAll()
	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx, stream)
	t.Cleanup(func() {
		cancel()
		cancelStream()
	})

	router := server.SetupRouter(server.Options{
		BiddingService:      biddingSvc,
		QueryService:        querySvc,
		NotificationService: notificationSvc,
		Broker:              broker,
		ReconcileOnRead:     true,
	})

	return router, repo
}

// SetupTestRouterWithAuctions initializes the router and seeds the repo.
func SetupTestRouterWithAuctions(t *testing.T, auctions ...model.Auction) (*gin.Engine, *repository.MemoryRepo) {
	t.Helper()
	router, repo := SetupTestRouter(t)

	for _, auction := range auctions {
		if err := repo.CreateAuction(context.Background(), auction); err != nil {
			t.Fatalf("failed to seed auction: %v", err)
		}
	}

	return router, repo
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}
