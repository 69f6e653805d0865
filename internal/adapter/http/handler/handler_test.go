package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pye-wu/axon-demo/internal/adapter/http/dto"
	"github.com/pye-wu/axon-demo/internal/adapter/http/middleware"
	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiDeps struct {
	router    *gin.Engine
	accounts  *mocks.MockAccountService
	transfers *mocks.MockTransferService
}

func setupAPI(t *testing.T, checkers ...ports.HealthChecker) apiDeps {
	ctrl := gomock.NewController(t)
	d := apiDeps{
		accounts:  mocks.NewMockAccountService(ctrl),
		transfers: mocks.NewMockTransferService(ctrl),
	}
	d.router = SetupRouter(RouterDeps{
		AccountSvc:     d.accounts,
		TransferSvc:    d.transfers,
		HealthCheckers: checkers,
		Logger:         zerolog.Nop(),
	})
	return d
}

func (d apiDeps) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- Account Handler Tests ---

func TestCreateAccount_Success(t *testing.T) {
	d := setupAPI(t)

	var got domain.CreateAccount
	d.accounts.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, cmd domain.Command) (*ports.CommandResult, error) {
			got = cmd.(domain.CreateAccount)
			return &ports.CommandResult{
				StreamID: domain.AccountStream(got.ID),
				Event:    domain.AccountCreated{ID: got.ID, Name: got.Name, Gender: got.Gender, Balance: got.InitialBalance, Tenant: got.Tenant},
				EventID:  uuid.New(),
				Version:  1,
			}, nil
		})

	w := d.do(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		Name:           " Luke ",
		Gender:         "male",
		InitialBalance: 100,
	}, map[string]string{middleware.HeaderTenantID: "retail"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Luke", got.Name)
	assert.Equal(t, domain.GenderMale, got.Gender)
	assert.Equal(t, domain.Money(100), got.InitialBalance)
	assert.Equal(t, domain.Tenant("retail"), got.Tenant)

	data := decodeData(t, w)
	assert.Equal(t, string(got.ID), data["account_id"])
	assert.Equal(t, "AccountCreated", data["event"])
	assert.Equal(t, false, data["rejected"])
}

func TestCreateAccount_ValidationError(t *testing.T) {
	d := setupAPI(t)

	w := d.do(http.MethodPost, "/api/v1/accounts", map[string]interface{}{"initial_balance": -5}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ACC_004", errorCode(t, w))
}

func TestCreateAccount_AlreadyExists(t *testing.T) {
	d := setupAPI(t)
	d.accounts.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, domain.ErrAccountExists)

	w := d.do(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{AccountID: "acc-1", Name: "Leia"}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACC_002", errorCode(t, w))
}

func TestDeposit_GeneratesTransactionID(t *testing.T) {
	d := setupAPI(t)

	var got domain.Deposit
	d.accounts.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, cmd domain.Command) (*ports.CommandResult, error) {
			got = cmd.(domain.Deposit)
			return &ports.CommandResult{
				TransactionID: got.TransactionID,
				Event:         domain.MoneyDeposited{AccountID: got.AccountID, TransactionID: got.TransactionID, Amount: got.Amount, Balance: 150},
				EventID:       uuid.New(),
				Version:       2,
			}, nil
		})

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/deposits", dto.MovementRequest{Amount: 50},
		map[string]string{middleware.HeaderTenantID: "retail"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AccountID("acc-1"), got.AccountID)
	assert.NotEmpty(t, got.TransactionID)
	assert.Equal(t, domain.Money(50), got.Amount)
	assert.Equal(t, domain.Tenant("retail"), got.Tenant)

	data := decodeData(t, w)
	assert.Equal(t, string(got.TransactionID), data["transaction_id"])
	assert.Equal(t, "MoneyDeposited", data["event"])
	assert.Equal(t, float64(2), data["version"])
}

func TestWithdraw_RejectedIsNotAnError(t *testing.T) {
	d := setupAPI(t)

	cmd := domain.Withdraw{AccountID: "acc-1", TransactionID: "tx-1", Amount: 500}
	d.accounts.EXPECT().Execute(gomock.Any(), cmd).Return(&ports.CommandResult{
		TransactionID: "tx-1",
		Event:         domain.MoneyWithdrawRejected{AccountID: "acc-1", TransactionID: "tx-1", Amount: 500, Balance: 10},
		EventID:       uuid.New(),
		Version:       3,
	}, nil)

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/withdrawals", dto.MovementRequest{TransactionID: "tx-1", Amount: 500}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "MoneyWithdrawRejected", data["event"])
	assert.Equal(t, true, data["rejected"])
}

func TestRefund_Redelivered(t *testing.T) {
	d := setupAPI(t)

	cmd := domain.Refund{AccountID: "acc-1", TransactionID: "tx-9", Amount: 5}
	d.accounts.EXPECT().Execute(gomock.Any(), cmd).Return(&ports.CommandResult{TransactionID: "tx-9", Version: 4}, nil)

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/refunds", dto.MovementRequest{TransactionID: "tx-9", Amount: 5}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.NotContains(t, data, "event")
	assert.Equal(t, false, data["rejected"])
}

func TestMovement_TechnicalFault(t *testing.T) {
	d := setupAPI(t)
	d.accounts.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, domain.ErrTechnicalFault)

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/deposits", dto.MovementRequest{Amount: int64(domain.FaultyDepositAmount)}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SYS_002", errorCode(t, w))
}

func TestMovement_InvalidInput(t *testing.T) {
	d := setupAPI(t)

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/deposits", dto.MovementRequest{Amount: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = d.do(http.MethodPost, "/api/v1/accounts/bad;id/deposits", dto.MovementRequest{Amount: 10}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ACC_004", errorCode(t, w))
}

func TestCloseAccount(t *testing.T) {
	d := setupAPI(t)
	d.accounts.EXPECT().Execute(gomock.Any(), domain.CloseAccount{AccountID: "acc-1"}).Return(&ports.CommandResult{
		Event:   domain.AccountCloseRejected{AccountID: "acc-1", Balance: 20},
		EventID: uuid.New(),
		Version: 5,
	}, nil)

	w := d.do(http.MethodPost, "/api/v1/accounts/acc-1/close", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "acc-1", data["account_id"])
	assert.Equal(t, "AccountCloseRejected", data["event"])
	assert.Equal(t, true, data["rejected"])
}

func TestGetAccount(t *testing.T) {
	d := setupAPI(t)
	d.accounts.EXPECT().GetAccount(gomock.Any(), domain.AccountID("acc-1")).Return(&ports.AccountView{
		Account: domain.Account{ID: "acc-1", Name: "Luke", Gender: domain.GenderMale, Balance: 70, Status: domain.AccountStatusActive},
		Version: 3,
	}, nil)

	w := d.do(http.MethodGet, "/api/v1/accounts/acc-1", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "acc-1", data["id"])
	assert.Equal(t, float64(70), data["balance"])
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, float64(3), data["version"])
}

func TestGetAccount_NotFound(t *testing.T) {
	d := setupAPI(t)
	d.accounts.EXPECT().GetAccount(gomock.Any(), domain.AccountID("ghost")).Return(nil, domain.ErrAccountNotFound)

	w := d.do(http.MethodGet, "/api/v1/accounts/ghost", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACC_001", errorCode(t, w))
}

func TestAccountEvents(t *testing.T) {
	d := setupAPI(t)

	rec, err := domain.NewRecordedEvent(1, domain.AccountCreated{ID: "acc-1", Name: "Luke", Gender: domain.GenderMale, Balance: 10}, time.Now())
	require.NoError(t, err)
	rec.Position = 42
	d.accounts.EXPECT().History(gomock.Any(), domain.AccountID("acc-1")).Return([]domain.RecordedEvent{rec}, nil)

	w := d.do(http.MethodGet, "/api/v1/accounts/acc-1/events", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "AccountCreated", resp.Data[0]["type"])
	assert.Equal(t, float64(42), resp.Data[0]["position"])
	payload := resp.Data[0]["payload"].(map[string]interface{})
	assert.Equal(t, "Luke", payload["name"])
}

// --- Transfer Handler Tests ---

func TestRequestTransfer_Accepted(t *testing.T) {
	d := setupAPI(t)

	d.transfers.EXPECT().RequestTransfer(gomock.Any(), domain.RequestTransfer{
		TransactionID: "tx-1",
		SourceID:      "acc-1",
		DestinationID: "acc-2",
		Amount:        25,
	}).Return(&ports.CommandResult{
		TransactionID: "tx-1",
		Event:         domain.TransferRequested{TransactionID: "tx-1", SourceID: "acc-1", DestinationID: "acc-2", Amount: 25},
		EventID:       uuid.New(),
		Version:       1,
	}, nil)

	w := d.do(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{
		TransactionID: "tx-1",
		SourceID:      "acc-1",
		DestinationID: "acc-2",
		Amount:        25,
	}, nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "tx-1", data["transaction_id"])
	assert.Equal(t, "TransferRequested", data["event"])
}

func TestRequestTransfer_SameAccount(t *testing.T) {
	d := setupAPI(t)

	w := d.do(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{SourceID: "acc-1", DestinationID: "acc-1", Amount: 5}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TRF_002", errorCode(t, w))
}

func TestRequestTransfer_Duplicate(t *testing.T) {
	d := setupAPI(t)
	d.transfers.EXPECT().RequestTransfer(gomock.Any(), gomock.Any()).Return(nil, domain.ErrTransferExists)

	w := d.do(http.MethodPost, "/api/v1/transfers", dto.TransferRequest{TransactionID: "tx-1", SourceID: "acc-1", DestinationID: "acc-2", Amount: 5}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TRF_003", errorCode(t, w))
}

func TestGetTransfer(t *testing.T) {
	d := setupAPI(t)
	d.transfers.EXPECT().GetTransfer(gomock.Any(), domain.TransactionID("tx-1")).Return(&ports.TransferView{
		Transfer: domain.Transfer{TransactionID: "tx-1", SourceID: "acc-1", DestinationID: "acc-2", Amount: 25, Status: domain.TransferStatusRequested},
		Saga:     &domain.TransferSaga{TransactionID: "tx-1", State: domain.SagaAwaitingDeposit, Version: 2},
	}, nil)

	w := d.do(http.MethodGet, "/api/v1/transfers/tx-1", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "REQUESTED", data["transfer"].(map[string]interface{})["status"])
	assert.Equal(t, string(domain.SagaAwaitingDeposit), data["saga"].(map[string]interface{})["state"])
}

func TestGetTransfer_NotFound(t *testing.T) {
	d := setupAPI(t)
	d.transfers.EXPECT().GetTransfer(gomock.Any(), domain.TransactionID("tx-404")).Return(nil, domain.ErrTransferNotFound)

	w := d.do(http.MethodGet, "/api/v1/transfers/tx-404", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRF_001", errorCode(t, w))
}

// --- Health Check Tests ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rdb := mocks.NewMockHealthChecker(ctrl)
	rdb.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rdb.EXPECT().Name().Return("redis").AnyTimes()

	d := setupAPI(t, pg, rdb)
	w := d.do(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp struct {
		Status       string                       `json:"status"`
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "healthy", resp.Dependencies["postgresql"]["status"])
	assert.Equal(t, "connection refused", resp.Dependencies["redis"]["error"])
}

// --- Swagger Tests ---

func TestSwaggerUI(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger", nil)

	SwaggerUI(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "swagger-ui")
	assert.Contains(t, w.Body.String(), "/swagger/spec")
}

func TestSwaggerSpec(t *testing.T) {
	SetSwaggerSpec(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)
	SwaggerSpec(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	SetSwaggerSpec([]byte("openapi: '3.0.0'\ninfo:\n  title: Test"))
	defer SetSwaggerSpec(nil)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)
	SwaggerSpec(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi")
}
