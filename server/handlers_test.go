package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/seckill"
	"github.com/ceyewan/seckill/xerrors"
)

type fakePurchase struct {
	purchaseErr error
	createErr   error
	lastVoucher int64
	lastUser    int64
}

func (f *fakePurchase) Purchase(_ context.Context, voucherID, userID int64) (*seckill.VoucherOrder, error) {
	f.lastVoucher, f.lastUser = voucherID, userID
	if f.purchaseErr != nil {
		return nil, f.purchaseErr
	}
	return &seckill.VoucherOrder{
		ID:        12345,
		VoucherID: voucherID,
		UserID:    userID,
		Status:    seckill.OrderStatusUnpaid,
	}, nil
}

func (f *fakePurchase) CreateVoucher(_ context.Context, v *seckill.Voucher) error {
	if f.createErr != nil {
		return f.createErr
	}
	v.ID = 777
	return nil
}

type fakeSign struct {
	streak  int
	markErr error
}

func (f *fakeSign) MarkActive(context.Context, int64) error { return f.markErr }

func (f *fakeSign) CurrentStreak(context.Context, int64) (int, error) { return f.streak, nil }

func newTestRouter(p PurchaseService, s SignService) http.Handler {
	return NewRouter(Deps{
		Purchase: p,
		Sign:     s,
		Logger:   clog.Discard(),
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, user, body string) (*httptest.ResponseRecorder, Response) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestPurchaseHandler_Success(t *testing.T) {
	p := &fakePurchase{}
	h := newTestRouter(p, &fakeSign{})

	w, resp := doRequest(t, h, http.MethodPost, "/api/vouchers/42/orders", "1001", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), p.lastVoucher)
	assert.Equal(t, int64(1001), p.lastUser)
}

func TestPurchaseHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{seckill.ErrVoucherNotFound, http.StatusNotFound, "VOUCHER_NOT_FOUND"},
		{seckill.ErrNotStarted, http.StatusForbidden, "NOT_STARTED"},
		{seckill.ErrEnded, http.StatusForbidden, "ENDED"},
		{seckill.ErrSoldOut, http.StatusConflict, "SOLD_OUT"},
		{seckill.ErrAlreadyPurchased, http.StatusConflict, "ALREADY_PURCHASED"},
		{seckill.ErrInFlight, http.StatusTooManyRequests, "IN_FLIGHT"},
		{xerrors.New("redis down"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			h := newTestRouter(&fakePurchase{purchaseErr: tt.err}, &fakeSign{})
			w, resp := doRequest(t, h, http.MethodPost, "/api/vouchers/42/orders", "1001", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestPurchaseHandler_BadInput(t *testing.T) {
	h := newTestRouter(&fakePurchase{}, &fakeSign{})

	// 缺少用户头
	w, _ := doRequest(t, h, http.MethodPost, "/api/vouchers/42/orders", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法券 ID
	w, _ = doRequest(t, h, http.MethodPost, "/api/vouchers/abc/orders", "1001", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法用户头
	w, _ = doRequest(t, h, http.MethodPost, "/api/vouchers/42/orders", "-5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateVoucherHandler(t *testing.T) {
	h := newTestRouter(&fakePurchase{}, &fakeSign{})

	body := `{
		"title": "100 off",
		"stock": 50,
		"begin_time": "` + time.Now().Format(time.RFC3339) + `",
		"end_time": "` + time.Now().Add(time.Hour).Format(time.RFC3339) + `"
	}`
	w, resp := doRequest(t, h, http.MethodPost, "/api/vouchers", "1", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	// 缺字段
	w, _ = doRequest(t, h, http.MethodPost, "/api/vouchers", "1", `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignHandlers(t *testing.T) {
	h := newTestRouter(&fakePurchase{}, &fakeSign{streak: 7})

	w, resp := doRequest(t, h, http.MethodPost, "/api/sign", "1001", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = doRequest(t, h, http.MethodGet, "/api/sign/streak", "1001", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"streak":7}`, string(data))
}

func TestHealthz(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return xerrors.New("connection refused") }

	h := NewRouter(Deps{
		Purchase: &fakePurchase{},
		Sign:     &fakeSign{},
		Logger:   clog.Discard(),
		Health:   map[string]HealthFunc{"redis": healthy},
	})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewRouter(Deps{
		Purchase: &fakePurchase{},
		Sign:     &fakeSign{},
		Logger:   clog.Discard(),
		Health:   map[string]HealthFunc{"redis": broken},
	})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
