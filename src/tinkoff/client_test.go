package tinkoff

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/investbot/src/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	factory := NewClientFactory(server.URL, 5*time.Second, time.Minute)
	return factory.WithToken("test-token")
}

func TestOperations(t *testing.T) {
	var gotAuth, gotFrom, gotTo string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Write([]byte(`{
			"trackingId": "abc",
			"status": "Ok",
			"payload": {"operations": [
				{"id": "1", "operationType": "PayIn", "currency": "RUB", "payment": 1000.0},
				{"id": "2", "operationType": "Buy", "currency": "RUB", "payment": -300.0,
				 "figi": "X", "instrumentType": "Stock",
				 "commission": {"currency": "RUB", "value": -0.9}}
			]}
		}`))
	})

	from := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	operations, err := client.Operations(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "2001-01-01T00:00:00Z", gotFrom)
	assert.Equal(t, "2024-06-01T12:00:00Z", gotTo)

	require.Len(t, operations, 2)
	assert.Equal(t, models.OperationTypePayIn, operations[0].OperationType)
	assert.Equal(t, 1000.0, operations[0].Payment)
	assert.Nil(t, operations[0].Commission)
	assert.Equal(t, 0.0, operations[0].CommissionValue())
	require.NotNil(t, operations[1].Commission)
	assert.Equal(t, -0.9, operations[1].CommissionValue())
}

func TestPortfolio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio", r.URL.Path)
		w.Write([]byte(`{
			"trackingId": "abc",
			"status": "Ok",
			"payload": {"positions": [
				{"figi": "X", "ticker": "XT", "balance": 5,
				 "averagePositionPrice": {"currency": "USD", "value": 100.0},
				 "expectedYield": {"currency": "USD", "value": 12.345}}
			]}
		}`))
	})

	positions, err := client.Portfolio(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "XT", positions[0].Ticker)
	assert.Equal(t, 5.0, positions[0].Balance)
	assert.Equal(t, 100.0, positions[0].AveragePositionPrice.Value)
}

func TestInstrumentByFIGICachesLookups(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/market/search/by-figi", r.URL.Path)
		assert.Equal(t, "X", r.URL.Query().Get("figi"))
		w.Write([]byte(`{
			"trackingId": "abc",
			"status": "Ok",
			"payload": {"figi": "X", "ticker": "XT", "name": "X Corp", "currency": "USD", "type": "Stock"}
		}`))
	})

	first, err := client.InstrumentByFIGI(context.Background(), "X")
	require.NoError(t, err)
	second, err := client.InstrumentByFIGI(context.Background(), "X")
	require.NoError(t, err)

	assert.Equal(t, "X Corp", first.Name)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestInvalidTokenSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{
			"trackingId": "abc",
			"status": "Error",
			"payload": {"message": "Token not found or expired", "code": "ACCESS_DENIED"}
		}`))
	})

	_, err := client.Operations(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token not found or expired")
	assert.Contains(t, err.Error(), "ACCESS_DENIED")
}

func TestNonJSONErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := client.Portfolio(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
