package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/credits-ledger/internal/domain/transaction"
	"github.com/credits-ledger/internal/domain/wallet"
	"github.com/credits-ledger/internal/ledger"
)

func testWallet(userID string) *wallet.Wallet {
	now := time.Now().UTC()
	return &wallet.Wallet{
		ID:          uuid.New(),
		UserID:      userID,
		Balance:     decimal.NewFromInt(150),
		TotalEarned: decimal.NewFromInt(200),
		TotalSpent:  decimal.NewFromInt(50),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) *Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return &resp
}

func TestWalletHandler_Create(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.POST("/wallets", handler.Create)

	existing := testWallet("user-123")
	mockService.On("GetOrCreateWallet", mock.Anything, "user-123").Return(existing, nil)

	body, _ := json.Marshal(CreateWalletRequest{UserID: "user-123"})
	req := httptest.NewRequest(http.MethodPost, "/wallets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got WalletResponse
	decodeData(t, w, &got)
	assert.Equal(t, existing.ID.String(), got.ID)
	assert.Equal(t, "user-123", got.UserID)
	assert.True(t, existing.Balance.Equal(got.Balance))
	assert.True(t, got.IsActive)

	mockService.AssertExpectations(t)
}

func TestWalletHandler_Create_MissingUserID(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.POST("/wallets", handler.Create)

	req := httptest.NewRequest(http.MethodPost, "/wallets", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeData(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)

	mockService.AssertNotCalled(t, "GetOrCreateWallet")
}

func TestWalletHandler_GetByID(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id", handler.GetByID)

	existing := testWallet("user-456")
	mockService.On("GetBalance", mock.Anything, existing.ID).Return(existing, nil)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+existing.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got WalletResponse
	decodeData(t, w, &got)
	assert.Equal(t, existing.ID.String(), got.ID)
	assert.True(t, existing.TotalEarned.Equal(got.TotalEarned))

	mockService.AssertExpectations(t)
}

func TestWalletHandler_GetByID_NotFound(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id", handler.GetByID)

	id := uuid.New()
	mockService.On("GetBalance", mock.Anything, id).Return(nil, wallet.ErrWalletNotFound{WalletID: id})

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+id.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decodeData(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	mockService.AssertExpectations(t)
}

func TestWalletHandler_GetByID_InvalidID(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id", handler.GetByID)

	req := httptest.NewRequest(http.MethodGet, "/wallets/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetBalance")
}

func TestWalletHandler_GetOverview(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id/overview", handler.GetOverview)

	existing := testWallet("user-789")
	recent := &transaction.Transaction{
		ID:            uuid.New(),
		WalletID:      existing.ID,
		Kind:          transaction.KindEarn,
		Amount:        decimal.NewFromInt(25),
		BalanceBefore: decimal.NewFromInt(125),
		BalanceAfter:  decimal.NewFromInt(150),
		Status:        transaction.StatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	overview := &ledger.Overview{
		Wallet:             existing,
		TransactionCount:   42,
		RecentTransactions: []*transaction.Transaction{recent},
	}
	mockService.On("GetOverview", mock.Anything, existing.ID).Return(overview, nil)

	req := httptest.NewRequest(http.MethodGet, "/wallets/"+existing.ID.String()+"/overview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Wallet             WalletResponse        `json:"wallet"`
		TransactionCount   int64                 `json:"transaction_count"`
		RecentTransactions []TransactionResponse `json:"recent_transactions"`
	}
	decodeData(t, w, &got)
	assert.Equal(t, existing.ID.String(), got.Wallet.ID)
	assert.Equal(t, int64(42), got.TransactionCount)
	require.Len(t, got.RecentTransactions, 1)
	assert.Equal(t, recent.ID.String(), got.RecentTransactions[0].ID)

	mockService.AssertExpectations(t)
}

func TestWalletHandler_GetTransactions(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id/transactions", handler.GetTransactions)

	walletID := uuid.New()
	txns := []*transaction.Transaction{
		{
			ID:            uuid.New(),
			WalletID:      walletID,
			Kind:          transaction.KindSpend,
			Amount:        decimal.NewFromInt(30),
			BalanceBefore: decimal.NewFromInt(100),
			BalanceAfter:  decimal.NewFromInt(70),
			Status:        transaction.StatusCompleted,
			CreatedAt:     time.Now().UTC(),
		},
	}
	mockService.On("ListTransactions", mock.Anything, walletID,
		transaction.Filter{Kind: transaction.KindSpend}, 2, 5).
		Return(txns, int64(11), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/wallets/"+walletID.String()+"/transactions?page=2&per_page=5&kind=spend", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []TransactionResponse
	resp := decodeData(t, w, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "spend", got[0].Kind)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 5, resp.Meta.PerPage)
	assert.Equal(t, 11, resp.Meta.TotalItems)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	mockService.AssertExpectations(t)
}

func TestWalletHandler_GetTransactions_InvalidFrom(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.GET("/wallets/:id/transactions", handler.GetTransactions)

	req := httptest.NewRequest(http.MethodGet,
		"/wallets/"+uuid.NewString()+"/transactions?from=yesterday", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ListTransactions")
}

func TestWalletHandler_Leaderboard(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 50)

	router := setupTestRouter(t)
	router.GET("/wallets/leaderboard", handler.Leaderboard)

	summaries := []*wallet.Summary{
		{WalletID: uuid.New(), UserID: "top", TotalEarned: decimal.NewFromInt(900), Balance: decimal.NewFromInt(400)},
		{WalletID: uuid.New(), UserID: "second", TotalEarned: decimal.NewFromInt(500), Balance: decimal.NewFromInt(500)},
	}
	mockService.On("Leaderboard", mock.Anything, 2).Return(summaries, nil)

	req := httptest.NewRequest(http.MethodGet, "/wallets/leaderboard?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []wallet.Summary
	decodeData(t, w, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "top", got[0].UserID)

	mockService.AssertExpectations(t)
}

func TestWalletHandler_Leaderboard_CapsLimit(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 25)

	router := setupTestRouter(t)
	router.GET("/wallets/leaderboard", handler.Leaderboard)

	mockService.On("Leaderboard", mock.Anything, 25).Return([]*wallet.Summary{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/wallets/leaderboard?limit=9999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestWalletHandler_Audit(t *testing.T) {
	t.Run("consistent wallet", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewWalletHandler(testLogger(), mockService, 100)

		router := setupTestRouter(t)
		router.GET("/wallets/:id/audit", handler.Audit)

		id := uuid.New()
		mockService.On("AuditWallet", mock.Anything, id).Return(nil)

		req := httptest.NewRequest(http.MethodGet, "/wallets/"+id.String()+"/audit", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		decodeData(t, w, &got)
		assert.Equal(t, id.String(), got["wallet_id"])
		assert.Equal(t, true, got["consistent"])

		mockService.AssertExpectations(t)
	})

	t.Run("drifted wallet", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewWalletHandler(testLogger(), mockService, 100)

		router := setupTestRouter(t)
		router.GET("/wallets/:id/audit", handler.Audit)

		id := uuid.New()
		mockService.On("AuditWallet", mock.Anything, id).Return(transaction.ErrLedgerDrift)

		req := httptest.NewRequest(http.MethodGet, "/wallets/"+id.String()+"/audit", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		resp := decodeData(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "LEDGER_DRIFT", resp.Error.Code)

		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_SetFrozen(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.PUT("/wallets/:id/freeze", handler.SetFrozen)

	id := uuid.New()
	mockService.On("SetWalletFrozen", mock.Anything, id, true).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/wallets/"+id.String()+"/freeze",
		bytes.NewReader([]byte(`{"frozen": true}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestWalletHandler_SetFrozen_MissingFlag(t *testing.T) {
	mockService := new(MockLedgerService)
	handler := NewWalletHandler(testLogger(), mockService, 100)

	router := setupTestRouter(t)
	router.PUT("/wallets/:id/freeze", handler.SetFrozen)

	req := httptest.NewRequest(http.MethodPut, "/wallets/"+uuid.NewString()+"/freeze",
		bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SetWalletFrozen")
}
