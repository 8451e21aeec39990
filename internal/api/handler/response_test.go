package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/victoryvault/staking/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	fn(c)
	return rr
}

func assertEnvelope(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if rr.Code != wantStatus {
		t.Errorf("status = %d, want %d — body: %s", rr.Code, wantStatus, rr.Body.String())
	}
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Success {
		t.Error("error response must have success=false")
	}
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
}

// A market that exists but is closed to staking is the caller's mistake,
// not a conflict with concurrent state.
func TestRespondStakeErrorStatuses(t *testing.T) {
	h := &StakeHandler{}

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"market not active", domain.ErrMarketNotActive, http.StatusBadRequest, "ERR_MARKET_NOT_ACTIVE"},
		{"invalid outcome", domain.ErrInvalidOutcome, http.StatusBadRequest, "ERR_INVALID_OUTCOME"},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, "ERR_INVALID_AMOUNT"},
		{"market missing", domain.ErrMarketNotFound, http.StatusNotFound, "ERR_MARKET_NOT_FOUND"},
		{"wrapped not active", fmt.Errorf("stake_service.PlaceStake: %w", domain.ErrMarketNotActive), http.StatusBadRequest, "ERR_MARKET_NOT_ACTIVE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := record(func(c *gin.Context) { h.respondStakeError(c, tc.err) })
			assertEnvelope(t, rr, tc.wantStatus, tc.wantCode)
		})
	}
}

// Only a repeated settlement run is a 409; premature or wrong-path
// settlement attempts are 400s.
func TestRespondSettleErrorStatuses(t *testing.T) {
	h := &SettlementHandler{}

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not resolved", domain.ErrMarketNotResolved, http.StatusBadRequest, "ERR_NOT_RESOLVED"},
		{"unsupported outcome", domain.ErrUnsupportedOutcome, http.StatusBadRequest, "ERR_UNSUPPORTED_OUTCOME"},
		{"already settled", domain.ErrAlreadySettled, http.StatusConflict, "ERR_ALREADY_SETTLED"},
		{"market missing", domain.ErrMarketNotFound, http.StatusNotFound, "ERR_MARKET_NOT_FOUND"},
		{"wrapped draw guard", fmt.Errorf("%w: draw requires the refund path", domain.ErrUnsupportedOutcome), http.StatusBadRequest, "ERR_UNSUPPORTED_OUTCOME"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := record(func(c *gin.Context) { h.respondSettleError(c, tc.err) })
			assertEnvelope(t, rr, tc.wantStatus, tc.wantCode)
		})
	}
}

// Read-only lookups surface an unknown market as 404, never 500.
func TestRespondQueryErrorStatuses(t *testing.T) {
	rr := record(func(c *gin.Context) {
		respondQueryError(c, fmt.Errorf("resolution_service.Attestations: %w", domain.ErrMarketNotFound), "could not fetch attestations")
	})
	assertEnvelope(t, rr, http.StatusNotFound, "ERR_MARKET_NOT_FOUND")

	rr = record(func(c *gin.Context) {
		respondQueryError(c, errors.New("connection reset"), "could not fetch attestations")
	})
	assertEnvelope(t, rr, http.StatusInternalServerError, "ERR_INTERNAL")
}
