package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesting-console/internal/adapter/adaptertest"
	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/models"
)

func newTestClient(t *testing.T, baseURL string) *ContactsClient {
	t.Helper()

	client, err := NewContactsClient(&ContactsClientConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Logger:  logging.Discard(),
	})
	require.NoError(t, err)
	return client
}

func TestNewContactsClient_InvalidBaseURL(t *testing.T) {
	tests := []string{"", "   ", "not a url", "ftp://contacts.local", "http://"}

	for _, baseURL := range tests {
		t.Run(baseURL, func(t *testing.T) {
			_, err := NewContactsClient(&ContactsClientConfig{BaseURL: baseURL})
			require.Error(t, err)
			catErr := apperrors.Categorize(err)
			assert.Equal(t, apperrors.CategoryConfig, catErr.Category)
		})
	}
}

func TestContactsClient_CRUD(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/")
	ctx := context.Background()

	created, err := client.CreateWorker(ctx, &models.WorkerInput{
		FullName:      "Ann",
		WalletAddress: "0xabc0000000000000000000000000000000000001",
		Label:         "Developer",
		SavedBy:       "0xuser",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "0xuser", created.SavedBy)
	assert.True(t, created.IsActive, "server default keeps new workers active")

	list, err := client.GetWorkersByWallet(ctx, "0xuser")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	fetched, err := client.GetWorker(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", fetched.FullName)

	name := "Ann Lee"
	updated, err := client.UpdateWorker(ctx, created.ID, &models.WorkerPatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", updated.FullName)
	assert.Equal(t, "Developer", updated.Label, "partial update keeps untouched fields")

	count, err := client.CountActive(ctx, "0xuser")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	msg, err := client.DeleteWorker(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Worker deleted successfully", msg)

	_, err = client.DeleteWorker(ctx, created.ID)
	require.Error(t, err, "second delete of the same id fails")
	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Equal(t, "Worker not found", reqErr.Message)
}

func TestContactsClient_SearchScopesToOwner(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()
	srv.Seed(
		models.Worker{FullName: "Ann", WalletAddress: "0x1", SavedBy: "0xuser", IsActive: true},
		models.Worker{FullName: "Annika", WalletAddress: "0x2", SavedBy: "0xother", IsActive: true},
		models.Worker{FullName: "Bob", WalletAddress: "0x3", SavedBy: "0xuser", IsActive: true},
	)

	client := newTestClient(t, srv.URL)

	scoped, err := client.SearchWorkers(context.Background(), "ann", "0xuser")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "0x1", scoped[0].WalletAddress)

	unscoped, err := client.SearchWorkers(context.Background(), "ann", "")
	require.NoError(t, err)
	assert.Len(t, unscoped, 2)
}

func TestContactsClient_UpdateUnknownID(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	label := "x"
	_, err := client.UpdateWorker(context.Background(), "missing", &models.WorkerPatch{Label: &label})

	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.Status)
	assert.Equal(t, http.MethodPut, reqErr.Method)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestContactsClient_Headers(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.GetWorkersByWallet(context.Background(), "0xuser")
	require.NoError(t, err)

	headers := srv.Headers()
	require.Len(t, headers, 1)
	assert.Equal(t, "application/json", headers[0].Get("Content-Type"))
	assert.Equal(t, "application/json", headers[0].Get("Accept"))
	assert.NotEmpty(t, headers[0].Get("X-Request-ID"))
	assert.Equal(t, 1, srv.Calls("GET /"))
}

func TestContactsClient_NoRetry(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()
	srv.FailNext(http.StatusServiceUnavailable, "maintenance")

	client := newTestClient(t, srv.URL)
	_, err := client.GetWorkersByWallet(context.Background(), "0xuser")

	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.Status)
	assert.Equal(t, "maintenance", reqErr.Message)
	assert.Equal(t, 1, srv.Calls("GET /"), "failed calls are not retried")
}

func TestContactsClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := newTestClient(t, baseURL)
	_, err := client.GetWorkersByWallet(context.Background(), "0xuser")

	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestContactsClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"walletAddress is required"}`, wantMsg: "walletAddress is required"},
		{name: "error field", status: http.StatusConflict, body: `{"error":"duplicate"}`, wantMsg: "duplicate"},
		{name: "non JSON body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			_, err := client.CreateWorker(context.Background(), &models.WorkerInput{WalletAddress: "0x1", SavedBy: "0xuser"})

			var reqErr *apperrors.RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, tt.wantMsg, reqErr.Message)
		})
	}
}

func TestContactsClient_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": "not-a-list"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.GetWorkersByWallet(context.Background(), "0xuser")

	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusOK, reqErr.Status)
	assert.Contains(t, reqErr.Message, "invalid response data")
}

func TestContactsClient_EmptyListData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "message": "no workers"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	workers, err := client.GetWorkersByWallet(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Empty(t, workers)

	_, err = client.GetWorker(context.Background(), "w1")
	require.Error(t, err, "single-record endpoints need a record")
}

func TestContactsClient_EscapesPathSegments(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"data": 0}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CountActive(context.Background(), "0x user/1")
	require.NoError(t, err)
	assert.Equal(t, "/count/0x%20user%2F1", gotPath)
}

func TestContactsClient_PacingHonoursContext(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()

	client, err := NewContactsClient(&ContactsClientConfig{
		BaseURL:           srv.URL,
		RequestsPerSecond: 0.001,
		Logger:            logging.Discard(),
	})
	require.NoError(t, err)

	// First call consumes the single burst token.
	_, err = client.GetWorkersByWallet(context.Background(), "0xuser")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.GetWorkersByWallet(ctx, "0xuser")
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, 1, srv.Calls("GET /"))
}

func TestContactsClient_BreakerOpensOnUpstreamFailures(t *testing.T) {
	srv := adaptertest.NewContactsServer()
	defer srv.Close()

	client, err := NewContactsClient(&ContactsClientConfig{
		BaseURL:         srv.URL,
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
		Logger:          logging.Discard(),
	})
	require.NoError(t, err)

	// Rejections are not upstream failures.
	for i := 0; i < 3; i++ {
		_, err = client.GetWorker(context.Background(), "ghost")
		require.True(t, apperrors.IsNotFound(err))
	}

	for i := 0; i < 2; i++ {
		srv.FailNext(http.StatusInternalServerError, "database down")
		_, err = client.GetWorkersByWallet(context.Background(), "0xuser")
		require.Error(t, err)
	}
	assert.Equal(t, "open", string(client.BreakerStats().State))

	_, err = client.GetWorkersByWallet(context.Background(), "0xuser")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.GetHTTPStatusCode(err))
	assert.Equal(t, 2, srv.Calls("GET /"), "an open breaker does not reach the API")
}
