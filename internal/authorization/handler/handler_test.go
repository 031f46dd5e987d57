//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custos/internal/authorization"
	"custos/internal/authorization/handler/mocks"
	"custos/internal/execution"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	router      chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.mockService, logger).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) post(body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/spending/authorize", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestAuthorizeSuccess() {
	dependentID := uuid.New().String()
	recordID := id.NewRecordID()
	remaining := decimal.RequireFromString("25")

	s.mockService.EXPECT().
		AuthorizeAndExecute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req authorization.Request) (authorization.Result, error) {
			s.Equal(dependentID, req.DependentID.String())
			s.Equal(id.CategoryNFT, req.Category)
			s.Equal(execution.ActionBuy, req.ActionKind)
			s.True(req.Amount.Equal(decimal.RequireFromString("25")))
			s.Equal("cool-cats", req.Params["collection"])
			return authorization.Result{
				Success:   true,
				RecordID:  recordID,
				TxHash:    "0xtrade",
				OrderID:   "order-1",
				Remaining: &remaining,
			}, nil
		})

	rec := s.post(map[string]any{
		"dependent_id": dependentID,
		"category":     "nft",
		"action_kind":  "buy",
		"amount":       "25",
		"token":        "USDC",
		"params":       map[string]string{"collection": "cool-cats"},
	})

	s.Equal(http.StatusOK, rec.Code)
	body := s.decodeBody(rec)
	s.Equal(true, body["success"])
	s.Equal(recordID.String(), body["record_id"])
	s.Equal("0xtrade", body["tx_hash"])
	s.Equal("25", body["remaining"])
}

func (s *HandlerSuite) TestLimitExceededCarriesRemaining() {
	remaining := decimal.RequireFromString("10")
	s.mockService.EXPECT().
		AuthorizeAndExecute(gomock.Any(), gomock.Any()).
		Return(authorization.Result{Remaining: &remaining},
			dErrors.New(dErrors.CodeLimitExceeded, "amount exceeds today's remaining allowance"))

	rec := s.post(map[string]any{
		"dependent_id": uuid.New().String(),
		"category":     "nft",
		"action_kind":  "buy",
		"amount":       "15",
		"token":        "USDC",
	})

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := s.decodeBody(rec)
	s.Equal("limit_exceeded", body["error"])
	s.Equal("10", body["remaining"])
	s.NotEmpty(body["error_description"])
}

func (s *HandlerSuite) TestPermissionDenied() {
	s.mockService.EXPECT().
		AuthorizeAndExecute(gomock.Any(), gomock.Any()).
		Return(authorization.Result{}, dErrors.New(dErrors.CodePermissionDenied, "category is disabled: nft"))

	rec := s.post(map[string]any{
		"dependent_id": uuid.New().String(),
		"category":     "nft",
		"action_kind":  "buy",
		"amount":       "5",
		"token":        "USDC",
	})

	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("permission_denied", s.decodeBody(rec)["error"])
}

func (s *HandlerSuite) TestExternalFailureHidesDetails() {
	s.mockService.EXPECT().
		AuthorizeAndExecute(gomock.Any(), gomock.Any()).
		Return(authorization.Result{}, dErrors.New(dErrors.CodeExternalServiceFailure, "marketplace 502 at 10.0.0.8"))

	rec := s.post(map[string]any{
		"dependent_id": uuid.New().String(),
		"category":     "trading",
		"action_kind":  "swap",
		"amount":       "5",
		"token":        "USDC",
	})

	s.Equal(http.StatusBadGateway, rec.Code)
	body := s.decodeBody(rec)
	s.Equal("external_service_failure", body["error"])
	s.NotContains(body, "error_description")
}

func (s *HandlerSuite) TestMalformedAmountRejectedBeforeService() {
	rec := s.post(map[string]any{
		"dependent_id": uuid.New().String(),
		"category":     "nft",
		"action_kind":  "buy",
		"amount":       "lots",
		"token":        "USDC",
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid_input", s.decodeBody(rec)["error"])
}

func (s *HandlerSuite) TestUnknownActionKind() {
	rec := s.post(map[string]any{
		"dependent_id": uuid.New().String(),
		"category":     "nft",
		"action_kind":  "flash_loan",
		"amount":       "5",
		"token":        "USDC",
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid_input", s.decodeBody(rec)["error"])
}

func (s *HandlerSuite) TestMalformedJSON() {
	req := httptest.NewRequest(http.MethodPost, "/spending/authorize", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("bad_request", s.decodeBody(rec)["error"])
}
