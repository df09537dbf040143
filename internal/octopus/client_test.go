package octopus_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/septivank/octobot/internal/config"
	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/octopus"
	"github.com/septivank/octobot/internal/octopus/octopustest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, f octopustest.Fixture) (*octopus.Client, *octopustest.Server) {
	t.Helper()
	server := octopustest.NewServer(t, f)
	return octopus.NewClientWithHTTP(server.Client(), server.Credentials(), zap.NewNop()), server
}

func TestObtainToken(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t, octopustest.DefaultFixture())

	token, err := client.ObtainToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kraken-token", token.Token)
	assert.Equal(t, "refresh-kraken-token", token.RefreshToken)
	assert.Equal(t, 7*24*time.Hour, token.RefreshExpiresIn)
}

func TestObtainTokenGraphQLError(t *testing.T) {
	t.Parallel()

	server := octopustest.NewServer(t, octopustest.DefaultFixture())
	creds := server.Credentials()
	creds.APIKey = "wrong"
	client := octopus.NewClientWithHTTP(server.Client(), creds, zap.NewNop())

	_, err := client.ObtainToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "Invalid data.")
}

func TestSmartDeviceAndTelemetry(t *testing.T) {
	t.Parallel()

	client, server := newClient(t, octopustest.DefaultFixture())
	ctx := context.Background()

	token, err := client.ObtainToken(ctx)
	require.NoError(t, err)

	device, err := client.SmartDevice(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "00-11-22-33-44-55-66-77", device.DeviceID)

	readings, err := client.Telemetry(ctx, token, device)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.NotNil(t, readings[0].Demand)
	assert.Equal(t, 350.0, *readings[0].Demand)
	assert.Equal(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), readings[0].ReadAt)

	assert.Equal(t, []string{
		"POST /graphql/ obtainKrakenToken",
		"POST /graphql/ smartDevices",
		"POST /graphql/ smartMeterTelemetry",
	}, server.Requests())
}

func TestSmartDeviceMissing(t *testing.T) {
	t.Parallel()

	f := octopustest.DefaultFixture()
	f.DeviceID = ""
	client, _ := newClient(t, f)

	_, err := client.SmartDevice(context.Background(), domain.AuthToken{Token: f.Token})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTelemetryNullDemand(t *testing.T) {
	t.Parallel()

	f := octopustest.DefaultFixture()
	f.Demand = nil
	client, _ := newClient(t, f)

	readings, err := client.Telemetry(context.Background(), domain.AuthToken{Token: f.Token}, domain.MeterDevice{DeviceID: f.DeviceID})
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Nil(t, readings[0].Demand)
}

func TestAccount(t *testing.T) {
	t.Parallel()

	f := octopustest.DefaultFixture()
	f.Agreements = []octopustest.Agreement{
		{TariffCode: "E-1R-OLD-21-01-01-A", ValidFrom: "2021-01-01T00:00:00Z", ValidTo: "2022-11-01T00:00:00Z"},
		{TariffCode: "E-1R-VAR-22-11-01-A", ValidFrom: "2022-11-01T00:00:00Z"},
	}
	client, _ := newClient(t, f)

	account, err := client.Account(context.Background())
	require.NoError(t, err)
	require.Len(t, account.Properties, 1)
	require.Len(t, account.Properties[0].ElectricityMeterPoints, 1)

	point := account.Properties[0].ElectricityMeterPoints[0]
	assert.Equal(t, f.MPAN, point.MPAN)
	assert.Equal(t, []string{f.SerialNumber}, point.SerialNumbers)
	require.Len(t, point.Agreements, 2)
	require.NotNil(t, point.Agreements[0].ValidTo)
	assert.Equal(t, time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC), *point.Agreements[0].ValidTo)
	assert.Nil(t, point.Agreements[1].ValidTo)
}

func TestAccountRequiresBasicAuth(t *testing.T) {
	t.Parallel()

	server := octopustest.NewServer(t, octopustest.DefaultFixture())
	creds := server.Credentials()
	creds.APIKey = "other"
	client := octopus.NewClientWithHTTP(server.Client(), creds, zap.NewNop())

	_, err := client.Account(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestProduct(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t, octopustest.DefaultFixture())

	product, err := client.Product(context.Background(), "VAR-22-11-01")
	require.NoError(t, err)
	assert.Equal(t, "Flexible Octopus", product.DisplayName)

	tariff, ok := product.SingleRegisterElectricityTariffs["_A"]["direct_debit_monthly"]
	require.True(t, ok)
	require.NotNil(t, tariff.StandardUnitRateIncVAT)
	assert.Equal(t, 27.12, *tariff.StandardUnitRateIncVAT)
}

func TestProductNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t, octopustest.DefaultFixture())

	_, err := client.Product(context.Background(), "NOPE-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsumptionFollowsPagination(t *testing.T) {
	t.Parallel()

	var gotFrom, gotTo string
	f := octopustest.DefaultFixture()
	f.PageSize = 2
	f.Consumption = func(from, to string) []float64 {
		gotFrom, gotTo = from, to
		return []float64{0.5, 0.25, 1.0, 2.0, 0.75}
	}
	client, server := newClient(t, f)

	day := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	intervals, err := client.Consumption(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, intervals, 5)
	assert.Equal(t, 0.75, intervals[4].Consumption)
	assert.Equal(t, "2026-10-15T00:00:00Z", gotFrom)
	assert.Equal(t, "2026-10-15T23:59:59Z", gotTo)
	assert.Len(t, server.Requests(), 3)
}

func TestConsumptionRefusesForeignNextLink(t *testing.T) {
	t.Parallel()

	var foreignAuth []string
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		foreignAuth = append(foreignAuth, user)
		_, _ = w.Write([]byte(`{"count":0,"next":null,"results":[]}`))
	}))
	t.Cleanup(foreign.Close)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"count":2,"next":%q,"results":[{"consumption":1.5}]}`,
			foreign.URL+r.URL.Path+"?page=2")
	}))
	t.Cleanup(provider.Close)

	creds := config.Octopus{
		APIKey:       "sk_live_secret",
		MPAN:         "1200000000001",
		SerialNumber: "21L0000001",
		BaseURL:      provider.URL,
		PageSize:     1,
	}
	client := octopus.NewClientWithHTTP(provider.Client(), creds, zap.NewNop())

	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	_, err := client.Consumption(context.Background(), day, day)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Empty(t, foreignAuth)
}

func TestUpstreamFailureIsClassified(t *testing.T) {
	t.Parallel()

	f := octopustest.DefaultFixture()
	f.Fail = map[string]int{"consumption": http.StatusBadGateway}
	client, _ := newClient(t, f)

	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	_, err := client.Consumption(context.Background(), day, day)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestUnreachableProvider(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := octopus.NewClient(config.Octopus{BaseURL: url, HTTPTimeout: time.Second, PageSize: 10}, zap.NewNop())

	_, err := client.ObtainToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
