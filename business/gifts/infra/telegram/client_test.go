package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		BaseURL:           server.URL,
		APIID:             12345,
		APIHash:           "hash",
		RequestsPerMinute: 60000, // Effectively unlimited for tests
	}
	client, err := NewClient(cfg, "test.session", logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestClient_Open_Authorized(t *testing.T) {
	var gotSession string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sessionOpenEndpoint {
			t.Errorf("path = %s, want %s", r.URL.Path, sessionOpenEndpoint)
		}
		var req sessionOpenRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotSession = req.Session
		json.NewEncoder(w).Encode(sessionOpenResponse{Authorized: true, UserID: 7})
	}))

	if err := client.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if gotSession != "test.session" {
		t.Errorf("session sent = %q, want %q", gotSession, "test.session")
	}
}

func TestClient_Open_Unauthorized(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sessionOpenResponse{Authorized: false})
	}))

	err := client.Open(context.Background())
	if !apperror.IsCode(err, apperror.CodeAuthRequired) {
		t.Fatalf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeAuthRequired)
	}
}

func TestClient_Open_HTTP401(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(gatewayError{Code: "AUTH_KEY_UNREGISTERED", Message: "session revoked"})
	}))

	err := client.Open(context.Background())
	if !apperror.IsCode(err, apperror.CodeAuthRequired) {
		t.Fatalf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeAuthRequired)
	}
}

func TestClient_StarsBalance_ParsesNanos(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(starsStatusResponse{
			Balance: starsAmount{Amount: 123, Nanos: 500_000_000},
		})
	}))

	balance, err := client.StarsBalance(context.Background())
	if err != nil {
		t.Fatalf("StarsBalance failed: %v", err)
	}
	if balance.String() != "123.5" {
		t.Errorf("balance = %s, want 123.5", balance)
	}
}

func TestClient_StarGifts_FullSnapshot(t *testing.T) {
	remains := int32(3)
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("hash"); got != "0" {
			t.Errorf("hash query = %q, want 0", got)
		}
		json.NewEncoder(w).Encode(starGiftsResponse{
			Hash: 99,
			Gifts: []giftPayload{
				{ID: 1, Title: "Bear", Stars: 150, Limited: true, AvailabilityRemains: &remains},
				{ID: 2, Title: "Heart", Stars: 15},
			},
		})
	}))

	page, notModified, err := client.StarGifts(context.Background(), 0)
	if err != nil {
		t.Fatalf("StarGifts failed: %v", err)
	}
	if notModified {
		t.Fatal("notModified = true for a full snapshot")
	}
	if page.Hash != 99 {
		t.Errorf("Hash = %d, want 99", page.Hash)
	}
	if len(page.Gifts) != 2 {
		t.Fatalf("got %d gifts, want 2", len(page.Gifts))
	}

	bear := page.Gifts[0]
	if !bear.Limited || bear.Remains == nil || *bear.Remains != 3 {
		t.Errorf("bear = %+v, want limited with 3 remaining", bear)
	}
	if bear.Price.String() != "150" {
		t.Errorf("bear price = %s, want 150", bear.Price)
	}
	if heart := page.Gifts[1]; heart.Limited || heart.Remains != nil {
		t.Errorf("heart = %+v, want unlimited with nil remains", heart)
	}
}

func TestClient_StarGifts_NotModified(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("hash"); got != "42" {
			t.Errorf("hash query = %q, want 42", got)
		}
		json.NewEncoder(w).Encode(starGiftsResponse{NotModified: true})
	}))

	page, notModified, err := client.StarGifts(context.Background(), 42)
	if err != nil {
		t.Fatalf("StarGifts failed: %v", err)
	}
	if !notModified {
		t.Fatal("notModified = false, want true")
	}
	if len(page.Gifts) != 0 {
		t.Errorf("got %d gifts on not-modified, want 0", len(page.Gifts))
	}
}

func TestClient_StarGifts_ServerError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(gatewayError{Code: "UPSTREAM_TIMEOUT", Message: "mtproto timeout"})
	}))

	_, _, err := client.StarGifts(context.Background(), 0)
	if err == nil {
		t.Fatal("expected error on HTTP 502")
	}
	if !apperror.IsCode(err, apperror.CodeCatalogFetchFailed) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeCatalogFetchFailed)
	}
}

func TestClient_PaymentForm_KindMapping(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req paymentFormRequest
		json.NewDecoder(r.Body).Decode(&req)
		kind := "star_gift"
		if req.GiftID == 2 {
			kind = "invoice"
		}
		json.NewEncoder(w).Encode(paymentFormResponse{
			FormID: 777,
			Kind:   kind,
			Price:  starsAmount{Amount: 150},
		})
	}))

	peer := domain.Peer{ID: 5}

	form, err := client.PaymentForm(context.Background(), peer, 1)
	if err != nil {
		t.Fatalf("PaymentForm failed: %v", err)
	}
	if !form.Payable() {
		t.Errorf("star_gift form should be payable, kind = %s", form.Kind)
	}
	if form.ID != 777 || form.GiftID != 1 || form.Peer.ID != 5 {
		t.Errorf("form = %+v", form)
	}

	form, err = client.PaymentForm(context.Background(), peer, 2)
	if err != nil {
		t.Fatalf("PaymentForm failed: %v", err)
	}
	if form.Payable() {
		t.Errorf("invoice form must not be payable, kind = %s", form.Kind)
	}
}

func TestClient_SubmitForm(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req submitFormRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.FormID != 777 {
			t.Errorf("form_id = %d, want 777", req.FormID)
		}
		json.NewEncoder(w).Encode(submitFormResponse{
			Success: true,
			Paid:    starsAmount{Amount: 150},
		})
	}))

	form := domain.PaymentForm{ID: 777, Kind: domain.FormKindStarGift, GiftID: 1}
	receipt, err := client.SubmitForm(context.Background(), form)
	if err != nil {
		t.Fatalf("SubmitForm failed: %v", err)
	}
	if receipt.GiftID != 1 || receipt.Price.String() != "150" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestClient_SubmitForm_Rejected(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitFormResponse{Success: false})
	}))

	form := domain.PaymentForm{ID: 1, Kind: domain.FormKindStarGift, GiftID: 1}
	_, err := client.SubmitForm(context.Background(), form)
	if !apperror.IsCode(err, apperror.CodePaymentRejected) {
		t.Fatalf("error code = %s, want %s", apperror.GetCode(err), apperror.CodePaymentRejected)
	}
}

func TestDialer_Dial(t *testing.T) {
	dialer := NewDialer(ClientConfig{BaseURL: "http://gateway.local", APIID: 1, APIHash: "h"},
		logger.New(io.Discard, logger.LevelError, "test", nil))

	platform, err := dialer.Dial("some.session")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if platform == nil {
		t.Fatal("Dial returned nil platform")
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, "s", logger.New(io.Discard, logger.LevelError, "test", nil))
	if !apperror.IsCode(err, apperror.CodeConfigurationError) {
		t.Fatalf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}
