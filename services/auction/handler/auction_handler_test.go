package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/auctionerrors"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/lifecycle"
	model "auction-marketplace/internal/models"
	query "auction-marketplace/internal/queryService"
	"auction-marketplace/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	// Initialize Gin in test mode
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/bids", handler.PlaceBidHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateBody   func(t *testing.T, resp map[string]any)
	}{
		{
			name: "success_valid_bid",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    100,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "auction1", "user1", 100.0).
					Return(model.Bid{
						BidID:     uuid.NewString(),
						AuctionID: "auction1",
						BidderID:  "user1",
						Amount:    100.0,
						CreatedAt: now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid accepted",
			validateBody: func(t *testing.T, resp map[string]any) {
				data := resp["data"].(map[string]any)
				bidID := data["bid_id"].(string)
				require.NotEmpty(t, bidID)
				_, parseErr := uuid.Parse(bidID)
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "auction1", data["auction_id"])
				require.Equal(t, "user1", data["bidder_id"])
				require.Equal(t, 100.0, data["amount"])
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_auction_id",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "",
				BidderID:  "user1",
				Amount:    50,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_bidder_id",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "",
				Amount:    50,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "invalid_amount_zero",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    0,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "negative_amount",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    -10,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "service_auction_not_found",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "missing",
				BidderID:  "user1",
				Amount:    50,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "missing", "user1", 50.0).
					Return(model.Bid{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name: "service_auction_not_active",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    50,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "auction1", "user1", 50.0).
					Return(model.Bid{}, auctionerrors.ErrAuctionNotActive)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not open for bidding",
		},
		{
			name: "service_self_bid",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "seller1",
				Amount:    50,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "auction1", "seller1", 50.0).
					Return(model.Bid{}, auctionerrors.ErrSelfBid)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "sellers cannot bid on their own auction",
		},
		{
			name: "service_bid_too_low",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    50,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "auction1", "user1", 50.0).
					Return(model.Bid{}, &auctionerrors.BidTooLowError{Minimum: 110})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount below the minimum",
			validateBody: func(t *testing.T, resp map[string]any) {
				require.Equal(t, 110.0, resp["minimum_bid"], "rejection should carry the retry floor")
			},
		},
		{
			name: "service_generic_error",
			requestBody: helpers.PlaceBidRequest{
				AuctionID: "auction1",
				BidderID:  "user1",
				Amount:    100,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					PlaceBid(gomock.Any(), "auction1", "user1", 100.0).
					Return(model.Bid{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var reqBody []byte
			var err error
			switch v := tc.requestBody.(type) {
			case string:
				reqBody = []byte(v)
			default:
				reqBody, err = json.Marshal(v)
				require.NoError(t, err)
			}

			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/bids", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err = json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)

			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateBody != nil {
				tc.validateBody(t, resp)
			}
		})
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", handler.CreateAuctionHandler)

	now := time.Now().UTC()
	start := now.Add(time.Hour)
	end := now.Add(24 * time.Hour)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name: "success_valid_auction",
			requestBody: helpers.CreateAuctionRequest{
				SellerID:      "seller1",
				Title:         "vintage synth",
				Description:   "works, one broken key",
				StartingPrice: 200,
				BidIncrement:  10,
				StartTime:     start,
				EndTime:       end,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					CreateAuction(gomock.Any(), "seller1", "vintage synth", "works, one broken key", 200.0, 10.0, gomock.Any(), gomock.Any()).
					Return(model.Auction{
						AuctionID: uuid.NewString(),
						SellerID:  "seller1",
						Status:    model.StatusDraft,
						CreatedAt: now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created",
			validateData: func(t *testing.T, data map[string]any) {
				auctionID := data["auction_id"].(string)
				require.NotEmpty(t, auctionID)
				_, parseErr := uuid.Parse(auctionID)
				require.NoError(t, parseErr, "AuctionID should be a valid UUID")
				require.Equal(t, "draft", data["status"])
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{not json`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_seller_id",
			requestBody: helpers.CreateAuctionRequest{
				Title:         "vintage synth",
				StartingPrice: 200,
				BidIncrement:  10,
				StartTime:     start,
				EndTime:       end,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_title",
			requestBody: helpers.CreateAuctionRequest{
				SellerID:      "seller1",
				StartingPrice: 200,
				BidIncrement:  10,
				StartTime:     start,
				EndTime:       end,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "zero_starting_price",
			requestBody: helpers.CreateAuctionRequest{
				SellerID:     "seller1",
				Title:        "vintage synth",
				BidIncrement: 10,
				StartTime:    start,
				EndTime:      end,
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "service_invalid_window",
			requestBody: helpers.CreateAuctionRequest{
				SellerID:      "seller1",
				Title:         "vintage synth",
				StartingPrice: 200,
				BidIncrement:  10,
				StartTime:     end,
				EndTime:       start, // inverted window, caught by the service
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					CreateAuction(gomock.Any(), "seller1", "vintage synth", "", 200.0, 10.0, gomock.Any(), gomock.Any()).
					Return(model.Auction{}, auctionerrors.ErrInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request details",
		},
		{
			name: "service_generic_error",
			requestBody: helpers.CreateAuctionRequest{
				SellerID:      "seller1",
				Title:         "vintage synth",
				StartingPrice: 200,
				BidIncrement:  10,
				StartTime:     start,
				EndTime:       end,
			},
			mockSetup: func() {
				mockBidding.EXPECT().
					CreateAuction(gomock.Any(), "seller1", "vintage synth", "", 200.0, 10.0, gomock.Any(), gomock.Any()).
					Return(model.Auction{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var reqBody []byte
			var err error
			switch v := tc.requestBody.(type) {
			case string:
				reqBody = []byte(v)
			default:
				reqBody, err = json.Marshal(v)
				require.NoError(t, err)
			}

			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err = json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)

			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusCreated {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Test CancelAuctionHandler
func TestCancelAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/:auction_id/cancel", handler.CancelAuctionHandler)

	tests := []struct {
		name           string
		auctionID      string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success_cancel",
			auctionID:   "auction1",
			requestBody: helpers.CancelAuctionRequest{SellerID: "seller1"},
			mockSetup: func() {
				mockBidding.EXPECT().
					CancelAuction(gomock.Any(), "auction1", "seller1").
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction cancelled",
		},
		{
			name:           "missing_seller_id",
			auctionID:      "auction1",
			requestBody:    helpers.CancelAuctionRequest{},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "not_owner",
			auctionID:   "auction1",
			requestBody: helpers.CancelAuctionRequest{SellerID: "intruder"},
			mockSetup: func() {
				mockBidding.EXPECT().
					CancelAuction(gomock.Any(), "auction1", "intruder").
					Return(auctionerrors.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "resource belongs to another user",
		},
		{
			name:        "already_ended",
			auctionID:   "auction1",
			requestBody: helpers.CancelAuctionRequest{SellerID: "seller1"},
			mockSetup: func() {
				mockBidding.EXPECT().
					CancelAuction(gomock.Any(), "auction1", "seller1").
					Return(auctionerrors.ErrNotCancellable)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction can no longer be cancelled",
		},
		{
			name:        "not_found",
			auctionID:   "missing",
			requestBody: helpers.CancelAuctionRequest{SellerID: "seller1"},
			mockSetup: func() {
				mockBidding.EXPECT().
					CancelAuction(gomock.Any(), "missing", "seller1").
					Return(auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			reqBody, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/auctions/"+tc.auctionID+"/cancel", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err = json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		auctionID      string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:      "success_active_auction",
			auctionID: "auction1",
			mockSetup: func() {
				mockQuery.EXPECT().
					AuctionDetail(gomock.Any(), "auction1").
					Return(query.AuctionView{
						Auction: model.Auction{
							AuctionID:     "auction1",
							SellerID:      "seller1",
							Title:         "vintage synth",
							StartingPrice: 200,
							BidIncrement:  10,
							StartTime:     now.Add(-time.Hour),
							EndTime:       now.Add(time.Hour),
							Status:        model.StatusActive,
							HighestBid:    250,
							BidCount:      3,
						},
						Phase:          lifecycle.PhaseActive,
						CurrentPrice:   250,
						MinimumNextBid: 260,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "active", data["phase"])
				require.Equal(t, 250.0, data["current_price"])
				require.Equal(t, 260.0, data["minimum_next_bid"])
				auction := data["auction"].(map[string]any)
				require.Equal(t, "auction1", auction["auction_id"])
			},
		},
		{
			name:      "not_found",
			auctionID: "missing",
			mockSetup: func() {
				mockQuery.EXPECT().
					AuctionDetail(gomock.Any(), "missing").
					Return(query.AuctionView{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:      "service_generic_error",
			auctionID: "auction1",
			mockSetup: func() {
				mockQuery.EXPECT().
					AuctionDetail(gomock.Any(), "auction1").
					Return(query.AuctionView{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodGet, "/auctions/"+tc.auctionID, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusOK {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Test GetBidsHandler
func TestGetBidsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id/bids", handler.GetBidsHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		auctionID      string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data []any)
	}{
		{
			name:      "success_multiple_bids",
			auctionID: "auction1",
			mockSetup: func() {
				mockQuery.EXPECT().
					BidHistory(gomock.Any(), "auction1").
					Return([]model.Bid{
						{BidID: uuid.NewString(), AuctionID: "auction1", BidderID: "user2", Amount: 150, CreatedAt: now},
						{BidID: uuid.NewString(), AuctionID: "auction1", BidderID: "user1", Amount: 100, CreatedAt: now.Add(-time.Minute)},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validateData: func(t *testing.T, data []any) {
				require.Len(t, data, 2)
				first := data[0].(map[string]any)
				second := data[1].(map[string]any)
				require.Equal(t, 150.0, first["amount"], "newest bid first")
				require.Equal(t, 100.0, second["amount"])
			},
		},
		{
			name:      "success_no_bids",
			auctionID: "auction2",
			mockSetup: func() {
				mockQuery.EXPECT().
					BidHistory(gomock.Any(), "auction2").
					Return([]model.Bid{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validateData: func(t *testing.T, data []any) {
				require.Len(t, data, 0)
			},
		},
		{
			name:      "nil_slice_serializes_as_empty_array",
			auctionID: "auction3",
			mockSetup: func() {
				mockQuery.EXPECT().
					BidHistory(gomock.Any(), "auction3").
					Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bids retrieved successfully",
			validateData: func(t *testing.T, data []any) {
				require.Len(t, data, 0)
			},
		},
		{
			name:      "auction_not_found",
			auctionID: "missing",
			mockSetup: func() {
				mockQuery.EXPECT().
					BidHistory(gomock.Any(), "missing").
					Return(nil, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:      "service_generic_error",
			auctionID: "auction4",
			mockSetup: func() {
				mockQuery.EXPECT().
					BidHistory(gomock.Any(), "auction4").
					Return(nil, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodGet, "/auctions/"+tc.auctionID+"/bids", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusOK {
				data := resp["data"].([]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Test DashboardHandler
func TestDashboardHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/dashboard", handler.DashboardHandler)

	tests := []struct {
		name           string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name: "success",
			mockSetup: func() {
				mockQuery.EXPECT().
					Dashboard(gomock.Any()).
					Return(query.Dashboard{
						AuctionsByStatus: map[model.AuctionStatus]int{
							model.StatusActive: 2,
							model.StatusEnded:  1,
						},
						TotalAuctions: 3,
						TotalBids:     17,
						TopAuctions: []query.AuctionView{
							{Auction: model.Auction{AuctionID: "auction1", HighestBid: 500}},
						},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "dashboard retrieved successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, 3.0, data["total_auctions"])
				require.Equal(t, 17.0, data["total_bids"])
				byStatus := data["auctions_by_status"].(map[string]any)
				require.Equal(t, 2.0, byStatus["active"])
				top := data["top_auctions"].([]any)
				require.Len(t, top, 1)
			},
		},
		{
			name: "service_generic_error",
			mockSetup: func() {
				mockQuery.EXPECT().
					Dashboard(gomock.Any()).
					Return(query.Dashboard{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			var resp map[string]any
			err := json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && w.Code == http.StatusOK {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

// Read handlers bring the cached status current before serving when
// reconcile-on-read is enabled, and skip it when disabled.
func TestReadHandlersReconcileOnRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), true)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)
	router.GET("/dashboard", handler.DashboardHandler)

	mockBidding.EXPECT().ReconcileStatuses(gomock.Any()).Return(nil).Times(2)
	mockQuery.EXPECT().AuctionDetail(gomock.Any(), "auction1").Return(query.AuctionView{}, nil)
	mockQuery.EXPECT().Dashboard(gomock.Any()).Return(query.Dashboard{}, nil)

	for _, path := range []string{"/auctions/auction1", "/dashboard"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

// A reconciliation failure must not fail the read.
func TestReconcileFailureDoesNotBlockRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	handler := NewAuctionHandler(mockBidding, mockQuery, events.NewBroker(), true)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)

	mockBidding.EXPECT().ReconcileStatuses(gomock.Any()).Return(errors.New("transition failed"))
	mockQuery.EXPECT().AuctionDetail(gomock.Any(), "auction1").
		Return(query.AuctionView{Auction: model.Auction{AuctionID: "auction1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auctions/auction1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

// Test StreamAuctionHandler: one published event reaches a subscribed client
// as an SSE frame, then the stream closes with the request context.
func TestStreamAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBidding := NewMockBiddingServiceInterface(ctrl)
	mockQuery := NewMockQueryServiceInterface(ctrl)
	broker := events.NewBroker()
	handler := NewAuctionHandler(mockBidding, mockQuery, broker, false)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id/stream", handler.StreamAuctionHandler)

	t.Run("unknown_auction_rejected", func(t *testing.T) {
		mockQuery.EXPECT().
			AuctionDetail(gomock.Any(), "missing").
			Return(query.AuctionView{}, auctionerrors.ErrAuctionNotFound)

		req := httptest.NewRequest(http.MethodGet, "/auctions/missing/stream", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delivers_published_event", func(t *testing.T) {
		mockQuery.EXPECT().
			AuctionDetail(gomock.Any(), "auction1").
			Return(query.AuctionView{Auction: model.Auction{AuctionID: "auction1"}}, nil)

		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/auctions/auction1/stream")
		require.NoError(t, err)
		defer resp.Body.Close()

		// Give the handler a moment to subscribe before publishing.
		time.Sleep(50 * time.Millisecond)
		broker.Publish(events.Event{
			EventID:   uuid.NewString(),
			Kind:      events.KindBidPlaced,
			AuctionID: "auction1",
			Amount:    120,
		})

		buf := make([]byte, 4096)
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		frame := string(buf[:n])
		require.Contains(t, frame, "event:"+string(events.KindBidPlaced))
		require.Contains(t, frame, "auction1")
	})
}
