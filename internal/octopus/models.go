package octopus

import (
	"fmt"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/tools/timeparser"
)

// Account is the REST account record reduced to what tariff resolution needs
type Account struct {
	Number     string
	Properties []Property
}

// Property is one supply address on the account
type Property struct {
	ID                     int
	ElectricityMeterPoints []MeterPoint
}

// MeterPoint is an electricity meter point and its tariff agreements
type MeterPoint struct {
	MPAN          string
	SerialNumbers []string
	Agreements    []domain.TariffAgreement
}

// Product is a product catalog entry
type Product struct {
	Code        string
	DisplayName string
	FullName    string
	// SingleRegisterElectricityTariffs is keyed by "_" + region letter, then
	// by payment method (e.g. "direct_debit_monthly").
	SingleRegisterElectricityTariffs map[string]map[string]ProductTariff
}

// ProductTariff holds pence-denominated prices for one region and payment method
type ProductTariff struct {
	Code                   string
	StandardUnitRateIncVAT *float64
	StandingChargeIncVAT   *float64
}

// REST response shapes

type accountResponse struct {
	Number     string             `json:"number"`
	Properties []propertyResponse `json:"properties"`
}

type propertyResponse struct {
	ID                     int                  `json:"id"`
	ElectricityMeterPoints []meterPointResponse `json:"electricity_meter_points"`
}

type meterPointResponse struct {
	MPAN   string `json:"mpan"`
	Meters []struct {
		SerialNumber string `json:"serial_number"`
	} `json:"meters"`
	Agreements []agreementResponse `json:"agreements"`
}

type agreementResponse struct {
	TariffCode string  `json:"tariff_code"`
	ValidFrom  *string `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
}

type productResponse struct {
	Code                             string                                      `json:"code"`
	DisplayName                      string                                      `json:"display_name"`
	FullName                         string                                      `json:"full_name"`
	SingleRegisterElectricityTariffs map[string]map[string]productTariffResponse `json:"single_register_electricity_tariffs"`
}

type productTariffResponse struct {
	Code                   string   `json:"code"`
	StandardUnitRateIncVAT *float64 `json:"standard_unit_rate_inc_vat"`
	StandingChargeIncVAT   *float64 `json:"standing_charge_inc_vat"`
}

type consumptionResponse struct {
	Count   int                   `json:"count"`
	Next    *string               `json:"next"`
	Results []consumptionInterval `json:"results"`
}

type consumptionInterval struct {
	Consumption   float64 `json:"consumption"`
	IntervalStart string  `json:"interval_start"`
	IntervalEnd   string  `json:"interval_end"`
}

func (r accountResponse) toAccount() (Account, error) {
	account := Account{Number: r.Number}
	for _, p := range r.Properties {
		property := Property{ID: p.ID}
		for _, mp := range p.ElectricityMeterPoints {
			point := MeterPoint{MPAN: mp.MPAN}
			for _, m := range mp.Meters {
				point.SerialNumbers = append(point.SerialNumbers, m.SerialNumber)
			}
			for _, a := range mp.Agreements {
				agreement, err := a.toAgreement()
				if err != nil {
					return Account{}, fmt.Errorf("meter point %s: %w", mp.MPAN, err)
				}
				point.Agreements = append(point.Agreements, agreement)
			}
			property.ElectricityMeterPoints = append(property.ElectricityMeterPoints, point)
		}
		account.Properties = append(account.Properties, property)
	}
	return account, nil
}

func (r agreementResponse) toAgreement() (domain.TariffAgreement, error) {
	agreement := domain.TariffAgreement{TariffCode: r.TariffCode}
	if r.ValidFrom != nil {
		from, err := timeparser.ParseProviderTimestamp(*r.ValidFrom)
		if err != nil {
			return domain.TariffAgreement{}, fmt.Errorf("agreement %s valid_from: %w", r.TariffCode, err)
		}
		agreement.ValidFrom = from
	}
	if r.ValidTo != nil {
		to, err := timeparser.ParseProviderTimestamp(*r.ValidTo)
		if err != nil {
			return domain.TariffAgreement{}, fmt.Errorf("agreement %s valid_to: %w", r.TariffCode, err)
		}
		agreement.ValidTo = &to
	}
	return agreement, nil
}

func (r productResponse) toProduct() Product {
	product := Product{
		Code:                             r.Code,
		DisplayName:                      r.DisplayName,
		FullName:                         r.FullName,
		SingleRegisterElectricityTariffs: make(map[string]map[string]ProductTariff, len(r.SingleRegisterElectricityTariffs)),
	}
	for region, methods := range r.SingleRegisterElectricityTariffs {
		byMethod := make(map[string]ProductTariff, len(methods))
		for method, t := range methods {
			byMethod[method] = ProductTariff{
				Code:                   t.Code,
				StandardUnitRateIncVAT: t.StandardUnitRateIncVAT,
				StandingChargeIncVAT:   t.StandingChargeIncVAT,
			}
		}
		product.SingleRegisterElectricityTariffs[region] = byMethod
	}
	return product
}

// GraphQL shapes

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type obtainTokenData struct {
	ObtainKrakenToken *struct {
		Token            string `json:"token"`
		RefreshToken     string `json:"refreshToken"`
		RefreshExpiresIn int64  `json:"refreshExpiresIn"`
	} `json:"obtainKrakenToken"`
}

type smartDevicesData struct {
	Account *struct {
		ElectricityAgreements []struct {
			MeterPoint *struct {
				Meters []struct {
					SmartDevices []struct {
						DeviceID string `json:"deviceId"`
					} `json:"smartDevices"`
				} `json:"meters"`
			} `json:"meterPoint"`
		} `json:"electricityAgreements"`
	} `json:"account"`
}

type telemetryData struct {
	SmartMeterTelemetry []struct {
		ReadAt      string   `json:"readAt"`
		Demand      *float64 `json:"demand"`
		Consumption *float64 `json:"consumption"`
	} `json:"smartMeterTelemetry"`
}
