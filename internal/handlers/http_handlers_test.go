package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"raffle/internal/models"
	"raffle/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	testAdmin = "0x00000000000000000000000000000000000000aa"
	testUser  = "0x00000000000000000000000000000000000000a1"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := func() time.Time { return time.Unix(1700000000, 0) }
	service := services.NewLotteryService(services.NewMemoryStore(), services.WithClock(now))
	h := NewHTTPHandler(service)

	r := gin.New()
	h.RegisterPublicRoutes(r)
	callerRoutes := r.Group("/")
	callerRoutes.Use(h.CallerMiddleware())
	h.RegisterCallerRoutes(callerRoutes)
	return r
}

func do(r *gin.Engine, method, path, caller string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createReferenceLottery(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, http.MethodPost, "/lotteries", testAdmin, models.LotteryConfig{
		TicketPrice:         1,
		StartTime:           0,
		EndTime:             2000000000,
		RaffleItems:         []string{"item1", "item2"},
		RaffleDescriptions:  []string{"Item 1 Description", "Item 2 Description"},
		PurchasePeriod:      2592000,
		MinimumParticipants: 3,
		MaxTicketsPerUser:   10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, but got %d: %s", w.Code, w.Body.String())
	}
	var summary models.LotterySummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if summary.Admin != testAdmin {
		t.Fatalf("Expected admin %s, but got %s", testAdmin, summary.Admin)
	}
	return summary.ID
}

func TestHTTPHandler_Lifecycle(t *testing.T) {
	r := newTestRouter(t)
	id := createReferenceLottery(t, r)
	base := "/lotteries/" + id

	t.Run("Test details tuple", func(t *testing.T) {
		w := do(r, http.MethodGet, base+"/details", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, but got %d", w.Code)
		}
		want := `[1,0,2000000000,2592000,3,10,0,false,"0x0000000000000000000000000000000000000000"]`
		if w.Body.String() != want {
			t.Errorf("Expected %s, but got %s", want, w.Body.String())
		}
	})

	t.Run("Test raffle items and descriptions", func(t *testing.T) {
		if got := do(r, http.MethodGet, base+"/raffle-items", "", nil).Body.String(); got != `["item1","item2"]` {
			t.Errorf("Unexpected raffle items %s", got)
		}
		if got := do(r, http.MethodGet, base+"/raffle-descriptions", "", nil).Body.String(); got != `["Item 1 Description","Item 2 Description"]` {
			t.Errorf("Unexpected raffle descriptions %s", got)
		}
		if got := do(r, http.MethodGet, base+"/purchase-period", "", nil).Body.String(); got != "2592000" {
			t.Errorf("Unexpected purchase period %s", got)
		}
		if got := do(r, http.MethodGet, base+"/admin", "", nil).Body.String(); got != `"`+testAdmin+`"` {
			t.Errorf("Unexpected admin %s", got)
		}
	})

	t.Run("Test purchase and caller views", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/tickets", testUser, PurchaseRequest{Quantity: 1, Payment: 1})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, but got %d: %s", w.Code, w.Body.String())
		}
		if got := do(r, http.MethodGet, base+"/me/tickets", testUser, nil).Body.String(); got != "1" {
			t.Errorf("Expected 1 ticket, but got %s", got)
		}
		if got := do(r, http.MethodGet, base+"/me/balance", testUser, nil).Body.String(); got != "1" {
			t.Errorf("Expected balance 1, but got %s", got)
		}
		if got := do(r, http.MethodGet, base+"/me/tickets", testAdmin, nil).Body.String(); got != "0" {
			t.Errorf("Expected admin to hold 0 tickets, but got %s", got)
		}
		if got := do(r, http.MethodGet, base+"/total-raised", "", nil).Body.String(); got != "1" {
			t.Errorf("Expected total raised 1, but got %s", got)
		}
		if got := do(r, http.MethodGet, base+"/total-participants", "", nil).Body.String(); got != "1" {
			t.Errorf("Expected 1 participant, but got %s", got)
		}
	})

	t.Run("Test error statuses", func(t *testing.T) {
		cases := []struct {
			name   string
			method string
			path   string
			caller string
			body   any
			status int
			code   services.Code
		}{
			{"payment mismatch", http.MethodPost, base + "/tickets", testUser, PurchaseRequest{Quantity: 1, Payment: 2}, http.StatusBadRequest, services.CodePaymentMismatch},
			{"zero quantity", http.MethodPost, base + "/tickets", testUser, PurchaseRequest{}, http.StatusBadRequest, services.CodeInvalidQuantity},
			{"ticket limit", http.MethodPost, base + "/tickets", testUser, PurchaseRequest{Quantity: 10, Payment: 10}, http.StatusConflict, services.CodeTicketLimit},
			{"withdraw by user", http.MethodPost, base + "/withdraw", testUser, nil, http.StatusForbidden, services.CodeNotAdmin},
			{"terminate by user", http.MethodPost, base + "/terminate", testUser, nil, http.StatusForbidden, services.CodeNotAdmin},
			{"unknown lottery", http.MethodGet, "/lotteries/missing/details", "", nil, http.StatusNotFound, services.CodeNotFound},
		}
		for _, tc := range cases {
			w := do(r, tc.method, tc.path, tc.caller, tc.body)
			if w.Code != tc.status {
				t.Errorf("%s: expected status %d, but got %d", tc.name, tc.status, w.Code)
				continue
			}
			var body struct {
				Code services.Code `json:"code"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Code != tc.code {
				t.Errorf("%s: expected code %s, but got %s", tc.name, tc.code, body.Code)
			}
		}
	})

	t.Run("Test missing caller is unauthorized", func(t *testing.T) {
		if w := do(r, http.MethodPost, base+"/tickets", "", PurchaseRequest{Quantity: 1, Payment: 1}); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, but got %d", w.Code)
		}
		if w := do(r, http.MethodPost, base+"/tickets", "not-an-address", PurchaseRequest{Quantity: 1, Payment: 1}); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, but got %d", w.Code)
		}
	})

	t.Run("Test withdraw then terminate", func(t *testing.T) {
		w := do(r, http.MethodPost, base+"/withdraw", testAdmin, nil)
		if w.Code != http.StatusOK || w.Body.String() != `{"amount":1}` {
			t.Fatalf("Unexpected withdraw response %d %s", w.Code, w.Body.String())
		}
		if got := do(r, http.MethodGet, base+"/total-raised", "", nil).Body.String(); got != "1" {
			t.Errorf("Expected total raised to stay 1, but got %s", got)
		}

		if w := do(r, http.MethodPost, base+"/terminate", testAdmin, nil); w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, but got %d: %s", w.Code, w.Body.String())
		}
		if w := do(r, http.MethodPost, base+"/terminate", testAdmin, nil); w.Code != http.StatusConflict {
			t.Errorf("Expected status 409 on second terminate, but got %d", w.Code)
		}
		if w := do(r, http.MethodPost, base+"/tickets", testUser, PurchaseRequest{Quantity: 1, Payment: 1}); w.Code != http.StatusConflict {
			t.Errorf("Expected status 409 after termination, but got %d", w.Code)
		}

		var entries []models.Entry
		w = do(r, http.MethodGet, base+"/journal", "", nil)
		if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(entries) != 4 {
			t.Errorf("Expected 4 journal entries, but got %d", len(entries))
		}
	})
}

func TestHTTPHandler_CreateRejectsBadConfig(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/lotteries", testAdmin, models.LotteryConfig{
		EndTime:            10,
		RaffleItems:        []string{"only"},
		RaffleDescriptions: []string{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, but got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/lotteries", "", nil)
	if w.Body.String() != "[]" {
		t.Errorf("Expected no lotteries, but got %s", w.Body.String())
	}
}
