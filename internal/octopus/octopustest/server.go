// Package octopustest provides an in-process fake of the Octopus Energy API.
package octopustest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/septivank/octobot/internal/config"
)

// Agreement is an account agreement as served by the fake. An empty ValidTo
// is served as null.
type Agreement struct {
	TariffCode string
	ValidFrom  string
	ValidTo    string
}

// Fixture describes the account the fake serves
type Fixture struct {
	APIKey        string
	AccountNumber string
	MPAN          string
	SerialNumber  string
	Token         string
	DeviceID      string
	// Demand is served as null when nil
	Demand     *float64
	Agreements []Agreement

	ProductCode         string
	DisplayName         string
	Region              string
	UnitRatePence       float64
	StandingChargePence float64

	// Consumption returns interval values for a period_from/period_to pair
	Consumption func(periodFrom, periodTo string) []float64
	// PageSize splits consumption results into linked pages when positive
	PageSize int

	// Fail makes any request whose path contains the key answer with the status
	Fail map[string]int
}

// Server is a running fake
type Server struct {
	*httptest.Server
	Fixture Fixture

	mu       sync.Mutex
	requests []string
}

// DefaultFixture is a single-agreement account on Flexible Octopus, region A
func DefaultFixture() Fixture {
	demand := 350.0
	return Fixture{
		APIKey:        "sk_test_key",
		AccountNumber: "A-1234ABCD",
		MPAN:          "1200000000001",
		SerialNumber:  "21L0000001",
		Token:         "kraken-token",
		DeviceID:      "00-11-22-33-44-55-66-77",
		Demand:        &demand,
		Agreements: []Agreement{
			{TariffCode: "E-1R-VAR-22-11-01-A", ValidFrom: "2023-01-01T00:00:00Z"},
		},
		ProductCode:         "VAR-22-11-01",
		DisplayName:         "Flexible Octopus",
		Region:              "A",
		UnitRatePence:       27.12,
		StandingChargePence: 48.65,
		Consumption: func(string, string) []float64 {
			return nil
		},
	}
}

// NewServer starts a fake serving f and closes it when t finishes
func NewServer(t *testing.T, f Fixture) *Server {
	t.Helper()
	s := &Server{Fixture: f}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Credentials returns provider configuration pointing at the fake
func (s *Server) Credentials() config.Octopus {
	return config.Octopus{
		APIKey:        s.Fixture.APIKey,
		MPAN:          s.Fixture.MPAN,
		SerialNumber:  s.Fixture.SerialNumber,
		AccountNumber: s.Fixture.AccountNumber,
		BaseURL:       s.URL,
		PageSize:      1500,
	}
}

// Requests returns "METHOD path [operation]" for each request served, in order
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, entry)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	for key, status := range s.Fixture.Fail {
		if strings.Contains(r.URL.Path, key) {
			s.record(r.Method + " " + r.URL.Path)
			http.Error(w, "injected failure", status)
			return
		}
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/graphql/":
		s.handleGraphQL(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/accounts/"+s.Fixture.AccountNumber+"/":
		s.record(r.Method + " " + r.URL.Path)
		if !s.basicAuthOK(r) {
			http.Error(w, `{"detail":"Authentication credentials were not provided."}`, http.StatusUnauthorized)
			return
		}
		s.writeAccount(w)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/products/"):
		s.record(r.Method + " " + r.URL.Path)
		code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products/"), "/")
		if code != s.Fixture.ProductCode {
			http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
			return
		}
		s.writeProduct(w)
	case r.Method == http.MethodGet && r.URL.Path == s.consumptionPath():
		s.record(r.Method + " " + r.URL.Path)
		if !s.basicAuthOK(r) {
			http.Error(w, `{"detail":"Authentication credentials were not provided."}`, http.StatusUnauthorized)
			return
		}
		s.writeConsumption(w, r)
	default:
		s.record(r.Method + " " + r.URL.Path)
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	}
}

func (s *Server) basicAuthOK(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	return ok && user == s.Fixture.APIKey && pass == ""
}

func (s *Server) consumptionPath() string {
	return fmt.Sprintf("/electricity-meter-points/%s/meters/%s/consumption/", s.Fixture.MPAN, s.Fixture.SerialNumber)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case strings.Contains(req.Query, "obtainKrakenToken"):
		s.record("POST /graphql/ obtainKrakenToken")
		input, _ := req.Variables["input"].(map[string]interface{})
		if input["APIKey"] != s.Fixture.APIKey {
			writeJSON(w, map[string]interface{}{
				"data":   nil,
				"errors": []map[string]string{{"message": "Invalid data."}},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"obtainKrakenToken": map[string]interface{}{
					"token":            s.Fixture.Token,
					"refreshToken":     "refresh-" + s.Fixture.Token,
					"refreshExpiresIn": 604800,
				},
			},
		})
	case strings.Contains(req.Query, "smartMeterTelemetry"):
		s.record("POST /graphql/ smartMeterTelemetry")
		if !s.tokenOK(w, r) {
			return
		}
		var readings []map[string]interface{}
		if req.Variables["deviceId"] == s.Fixture.DeviceID {
			readings = append(readings, map[string]interface{}{
				"readAt":      "2026-10-16T12:00:00+00:00",
				"consumption": 1234.5,
				"demand":      s.Fixture.Demand,
			})
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{"smartMeterTelemetry": readings},
		})
	case strings.Contains(req.Query, "electricityAgreements"):
		s.record("POST /graphql/ smartDevices")
		if !s.tokenOK(w, r) {
			return
		}
		var devices []map[string]string
		if s.Fixture.DeviceID != "" {
			devices = append(devices, map[string]string{"deviceId": s.Fixture.DeviceID})
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"account": map[string]interface{}{
					"electricityAgreements": []map[string]interface{}{{
						"meterPoint": map[string]interface{}{
							"meters": []map[string]interface{}{{"smartDevices": devices}},
						},
					}},
				},
			},
		})
	default:
		s.record("POST /graphql/ unknown")
		http.Error(w, "unknown operation", http.StatusBadRequest)
	}
}

func (s *Server) tokenOK(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != s.Fixture.Token {
		writeJSON(w, map[string]interface{}{
			"data":   nil,
			"errors": []map[string]string{{"message": "Invalid authorization header"}},
		})
		return false
	}
	return true
}

func (s *Server) writeAccount(w http.ResponseWriter) {
	agreements := make([]map[string]interface{}, 0, len(s.Fixture.Agreements))
	for _, a := range s.Fixture.Agreements {
		entry := map[string]interface{}{
			"tariff_code": a.TariffCode,
			"valid_from":  a.ValidFrom,
			"valid_to":    nil,
		}
		if a.ValidTo != "" {
			entry["valid_to"] = a.ValidTo
		}
		agreements = append(agreements, entry)
	}

	writeJSON(w, map[string]interface{}{
		"number": s.Fixture.AccountNumber,
		"properties": []map[string]interface{}{{
			"id": 1,
			"electricity_meter_points": []map[string]interface{}{{
				"mpan":       s.Fixture.MPAN,
				"meters":     []map[string]string{{"serial_number": s.Fixture.SerialNumber}},
				"agreements": agreements,
			}},
		}},
	})
}

func (s *Server) writeProduct(w http.ResponseWriter) {
	writeJSON(w, map[string]interface{}{
		"code":         s.Fixture.ProductCode,
		"display_name": s.Fixture.DisplayName,
		"full_name":    s.Fixture.DisplayName + " October 2022 v1",
		"single_register_electricity_tariffs": map[string]interface{}{
			"_" + s.Fixture.Region: map[string]interface{}{
				"direct_debit_monthly": map[string]interface{}{
					"code":                       "E-1R-" + s.Fixture.ProductCode + "-" + s.Fixture.Region,
					"standard_unit_rate_inc_vat": s.Fixture.UnitRatePence,
					"standing_charge_inc_vat":    s.Fixture.StandingChargePence,
				},
			},
		},
	})
}

func (s *Server) writeConsumption(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	values := s.Fixture.Consumption(q.Get("period_from"), q.Get("period_to"))

	page := 1
	if p := q.Get("page"); p != "" {
		_, _ = fmt.Sscanf(p, "%d", &page)
	}
	start, end := 0, len(values)
	var next interface{}
	if s.Fixture.PageSize > 0 {
		start = (page - 1) * s.Fixture.PageSize
		if start > len(values) {
			start = len(values)
		}
		end = start + s.Fixture.PageSize
		if end < len(values) {
			nq := r.URL.Query()
			nq.Set("page", fmt.Sprintf("%d", page+1))
			next = s.URL + r.URL.Path + "?" + nq.Encode()
		} else {
			end = len(values)
		}
	}

	results := make([]map[string]interface{}, 0, end-start)
	for _, v := range values[start:end] {
		results = append(results, map[string]interface{}{
			"consumption":    v,
			"interval_start": "2026-10-15T00:00:00Z",
			"interval_end":   "2026-10-15T00:30:00Z",
		})
	}

	writeJSON(w, map[string]interface{}{
		"count":    len(values),
		"next":     next,
		"previous": nil,
		"results":  results,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
