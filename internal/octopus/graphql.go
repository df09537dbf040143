package octopus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/tools/timeparser"
)

const obtainTokenMutation = `mutation obtainKrakenToken($input: ObtainJSONWebTokenInput!) {
	obtainKrakenToken(input: $input) {
		token
		refreshToken
		refreshExpiresIn
	}
}`

const smartDevicesQuery = `query getSmartDevices($accountNumber: String!) {
	account(accountNumber: $accountNumber) {
		electricityAgreements(active: true) {
			meterPoint {
				meters(includeInactive: false) {
					smartDevices {
						deviceId
					}
				}
			}
		}
	}
}`

const telemetryQuery = `query getSmartMeterTelemetry($deviceId: String!) {
	smartMeterTelemetry(deviceId: $deviceId) {
		readAt
		consumption
		demand
	}
}`

// graphQL posts query to the GraphQL endpoint and decodes the data member
// into out. A non-empty token is sent in the Authorization header.
func (c *Client) graphQL(ctx context.Context, token, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/graphql/"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := c.do(req, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: graphql error: %s", domain.ErrUpstreamUnavailable, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: graphql response has no data", domain.ErrUpstreamUnavailable)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decode graphql data: %w", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// ObtainToken exchanges the API key for a Kraken token
func (c *Client) ObtainToken(ctx context.Context) (domain.AuthToken, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"APIKey": c.creds.APIKey,
		},
	}

	var data obtainTokenData
	if err := c.graphQL(ctx, "", obtainTokenMutation, variables, &data); err != nil {
		return domain.AuthToken{}, fmt.Errorf("failed to obtain token: %w", err)
	}
	if data.ObtainKrakenToken == nil || data.ObtainKrakenToken.Token == "" {
		return domain.AuthToken{}, fmt.Errorf("failed to obtain token: %w: empty token received", domain.ErrUpstreamUnavailable)
	}

	return domain.AuthToken{
		Token:            data.ObtainKrakenToken.Token,
		RefreshToken:     data.ObtainKrakenToken.RefreshToken,
		RefreshExpiresIn: time.Duration(data.ObtainKrakenToken.RefreshExpiresIn) * time.Second,
	}, nil
}

// SmartDevice returns the first smart device of the first meter of the
// account's first active electricity agreement.
func (c *Client) SmartDevice(ctx context.Context, token domain.AuthToken) (domain.MeterDevice, error) {
	variables := map[string]interface{}{
		"accountNumber": c.creds.AccountNumber,
	}

	var data smartDevicesData
	if err := c.graphQL(ctx, token.Token, smartDevicesQuery, variables, &data); err != nil {
		return domain.MeterDevice{}, fmt.Errorf("failed to query smart devices: %w", err)
	}

	if data.Account == nil {
		return domain.MeterDevice{}, fmt.Errorf("%w: account %s", domain.ErrNotFound, c.creds.AccountNumber)
	}
	if len(data.Account.ElectricityAgreements) == 0 {
		return domain.MeterDevice{}, fmt.Errorf("%w: no active electricity agreements", domain.ErrNotFound)
	}
	meterPoint := data.Account.ElectricityAgreements[0].MeterPoint
	if meterPoint == nil || len(meterPoint.Meters) == 0 {
		return domain.MeterDevice{}, fmt.Errorf("%w: no meters on active agreement", domain.ErrNotFound)
	}
	devices := meterPoint.Meters[0].SmartDevices
	if len(devices) == 0 || devices[0].DeviceID == "" {
		return domain.MeterDevice{}, fmt.Errorf("%w: no smart devices on meter", domain.ErrNotFound)
	}

	return domain.MeterDevice{DeviceID: devices[0].DeviceID}, nil
}

// Telemetry returns the current telemetry readings for device
func (c *Client) Telemetry(ctx context.Context, token domain.AuthToken, device domain.MeterDevice) ([]domain.TelemetryReading, error) {
	variables := map[string]interface{}{
		"deviceId": device.DeviceID,
	}

	var data telemetryData
	if err := c.graphQL(ctx, token.Token, telemetryQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}

	readings := make([]domain.TelemetryReading, 0, len(data.SmartMeterTelemetry))
	for _, r := range data.SmartMeterTelemetry {
		reading := domain.TelemetryReading{
			Demand:      r.Demand,
			Consumption: r.Consumption,
		}
		if r.ReadAt != "" {
			readAt, err := timeparser.ParseProviderTimestamp(r.ReadAt)
			if err != nil {
				return nil, fmt.Errorf("%w: telemetry readAt: %w", domain.ErrUpstreamUnavailable, err)
			}
			reading.ReadAt = readAt
		}
		readings = append(readings, reading)
	}

	return readings, nil
}
