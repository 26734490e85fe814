package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"raddiwala/internal/middleware"
	"raddiwala/internal/models"
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-secret"

// stubBids overrides the calls a test needs; anything else panics through the nil interface.
type stubBids struct {
	services.BidService
	place func(collectorID primitive.ObjectID, req *validators.BidCreateRequest) (*models.Bid, error)
	get   func(bidID, callerID primitive.ObjectID, role models.Role) (*models.BidView, error)
}

func (s *stubBids) Place(_ context.Context, collectorID primitive.ObjectID, req *validators.BidCreateRequest) (*models.Bid, error) {
	return s.place(collectorID, req)
}

func (s *stubBids) Get(_ context.Context, bidID, callerID primitive.ObjectID, role models.Role) (*models.BidView, error) {
	return s.get(bidID, callerID, role)
}

type stubSettlement struct {
	services.SettlementService
	lastRequest *validators.CompletePickupRequest
}

func (s *stubSettlement) Complete(_ context.Context, collectorID, bidID primitive.ObjectID, req *validators.CompletePickupRequest) (*models.CompletedTransaction, error) {
	s.lastRequest = req
	total := 0.0
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}
	return &models.CompletedTransaction{ID: primitive.NewObjectID(), BidID: bidID, CollectorID: collectorID, TotalAmount: total}, nil
}

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
}

func newBidRouter(bids services.BidService, settlement services.SettlementService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewBidHandler(bids, settlement, logger.NewNop())

	group := router.Group("/bids", middleware.AuthRequired(testSecret, "token", nil))
	group.GET("/:id", handler.GetBid)
	group.POST("", middleware.CollectorRequired(), handler.PlaceBid)
	group.POST("/:id/complete", middleware.CollectorRequired(), handler.CompletePickup)
	return router
}

func token(t *testing.T, role models.Role) (primitive.ObjectID, string) {
	t.Helper()
	id := primitive.NewObjectID()
	signed, _, err := utils.GenerateToken(id, string(role), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return id, signed
}

func do(t *testing.T, router http.Handler, method, path, bearer string, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w.Code, resp
}

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, m := range errorMappings {
		t.Run(m.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			err := fmt.Errorf("wrapped: %w", &services.DomainError{Kind: m.kind, Message: "nope"})
			respondError(c, logger.NewNop(), err)

			if w.Code != m.status {
				t.Fatalf("status = %d, want %d", w.Code, m.status)
			}
			if !strings.Contains(w.Body.String(), `"code":"`+m.code+`"`) {
				t.Fatalf("body %s missing code %s", w.Body.String(), m.code)
			}
		})
	}

	t.Run("unexpected", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, logger.NewNop(), errors.New("connection reset"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if strings.Contains(w.Body.String(), "connection reset") {
			t.Fatal("internal error text leaked to the client")
		}
	})
}

func TestRespondErrorDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(c, logger.NewNop(), &services.DomainError{
		Kind:    services.ErrValidation,
		Message: "invalid request",
		Details: map[string]string{"pincode": "must be 6 digits"},
	})

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Details["pincode"] != "must be 6 digits" {
		t.Fatalf("details not forwarded: %s", w.Body.String())
	}
}

func TestGetBid(t *testing.T) {
	bidID := primitive.NewObjectID()
	customerID, customerToken := token(t, models.RoleCustomer)

	var gotCaller primitive.ObjectID
	var gotRole models.Role
	bids := &stubBids{get: func(id, callerID primitive.ObjectID, role models.Role) (*models.BidView, error) {
		gotCaller, gotRole = callerID, role
		if id != bidID {
			return nil, &services.DomainError{Kind: services.ErrNotFound, Message: "bid not found"}
		}
		return &models.BidView{Bid: &models.Bid{ID: bidID}}, nil
	}}
	router := newBidRouter(bids, &stubSettlement{})

	status, _ := do(t, router, http.MethodGet, "/bids/"+bidID.Hex(), customerToken, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if gotCaller != customerID || gotRole != models.RoleCustomer {
		t.Fatalf("caller forwarded as %s/%s", gotCaller.Hex(), gotRole)
	}

	status, resp := do(t, router, http.MethodGet, "/bids/"+primitive.NewObjectID().Hex(), customerToken, "")
	if status != http.StatusNotFound || resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("missing bid: %d %+v", status, resp.Error)
	}

	status, resp = do(t, router, http.MethodGet, "/bids/not-an-id", customerToken, "")
	if status != http.StatusBadRequest || resp.Error.Message != utils.ErrInvalidID {
		t.Fatalf("bad id: %d %+v", status, resp.Error)
	}

	status, _ = do(t, router, http.MethodGet, "/bids/"+bidID.Hex(), "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", status)
	}
}

func TestPlaceBid(t *testing.T) {
	collectorID, collectorToken := token(t, models.RoleCollector)
	_, customerToken := token(t, models.RoleCustomer)
	requestID := primitive.NewObjectID()

	bids := &stubBids{place: func(id primitive.ObjectID, req *validators.BidCreateRequest) (*models.Bid, error) {
		if id != collectorID {
			t.Errorf("collector = %s", id.Hex())
		}
		if req.PickupRequestID == requestID.Hex() {
			return &models.Bid{ID: primitive.NewObjectID(), CollectorID: id}, nil
		}
		return nil, &services.DomainError{Kind: services.ErrGeoMismatch, Message: "different city"}
	}}
	router := newBidRouter(bids, &stubSettlement{})

	body := `{"pickup_request_id":"` + requestID.Hex() + `","item_rates":[{"waste_type":"paper","price_per_kg":10}],"proposed_pickup_time":"tomorrow 10am"}`
	status, _ := do(t, router, http.MethodPost, "/bids", collectorToken, body)
	if status != http.StatusCreated {
		t.Fatalf("status = %d", status)
	}

	other := strings.Replace(body, requestID.Hex(), primitive.NewObjectID().Hex(), 1)
	status, resp := do(t, router, http.MethodPost, "/bids", collectorToken, other)
	if status != http.StatusBadRequest || resp.Error.Code != "GEO_MISMATCH" {
		t.Fatalf("geo mismatch: %d %+v", status, resp.Error)
	}

	status, _ = do(t, router, http.MethodPost, "/bids", collectorToken, `{"pickup_request_id":`)
	if status != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d", status)
	}

	status, _ = do(t, router, http.MethodPost, "/bids", customerToken, body)
	if status != http.StatusForbidden {
		t.Fatalf("customer placing a bid: status = %d", status)
	}
}

func TestCompletePickupBodyIsOptional(t *testing.T) {
	_, collectorToken := token(t, models.RoleCollector)
	settlement := &stubSettlement{}
	router := newBidRouter(&stubBids{}, settlement)
	path := "/bids/" + primitive.NewObjectID().Hex() + "/complete"

	status, _ := do(t, router, http.MethodPost, path, collectorToken, "")
	if status != http.StatusOK {
		t.Fatalf("empty body: status = %d", status)
	}
	if settlement.lastRequest == nil || settlement.lastRequest.TotalAmount != nil {
		t.Fatalf("empty body should reach the service as an empty request, got %+v", settlement.lastRequest)
	}

	status, resp := do(t, router, http.MethodPost, path, collectorToken, `{"total_amount":180}`)
	if status != http.StatusOK {
		t.Fatalf("with amount: status = %d", status)
	}
	var txn models.CompletedTransaction
	if err := json.Unmarshal(resp.Data, &txn); err != nil {
		t.Fatal(err)
	}
	if txn.TotalAmount != 180 {
		t.Fatalf("total = %v, want 180", txn.TotalAmount)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{"all up", map[string]Pinger{"mongodb": pinger{}, "redis": pinger{}}, http.StatusOK},
		{"redis down", map[string]Pinger{"mongodb": pinger{}, "redis": pinger{errors.New("dial tcp")}}, http.StatusServiceUnavailable},
		{"optional dependency absent", map[string]Pinger{"mongodb": pinger{}, "redis": nil}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler("test", tt.checks).Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
