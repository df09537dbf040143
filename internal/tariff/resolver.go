// Package tariff resolves the account's current electricity tariff and its prices.
package tariff

import (
	"context"
	"fmt"
	"strings"

	"github.com/septivank/octobot/internal/config"
	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/internal/octopus"
	"github.com/septivank/octobot/internal/units"
	"go.uber.org/zap"
)

// PaymentMethod is the only payment branch read from a product's rate table
const PaymentMethod = "direct_debit_monthly"

const tariffCodeSeparator = "-"

// Catalog is the provider surface needed to resolve a tariff
type Catalog interface {
	Account(ctx context.Context) (octopus.Account, error)
	Product(ctx context.Context, productCode string) (octopus.Product, error)
}

// Resolver resolves the current tariff rate. It holds no state between calls.
type Resolver struct {
	catalog Catalog
	mpan    string
	logger  *zap.Logger
}

// NewResolver creates a resolver for the configured meter point
func NewResolver(catalog Catalog, creds config.Octopus, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		mpan:    creds.MPAN,
		logger:  logger.With(zap.String("component", "tariff")),
	}
}

// Resolve fetches the account, picks the current agreement on the configured
// meter point and looks up its direct debit prices. Errors are returned
// unchanged in kind: domain.ErrNotFound or domain.ErrUpstreamUnavailable.
func (r *Resolver) Resolve(ctx context.Context) (domain.TariffRate, error) {
	account, err := r.catalog.Account(ctx)
	if err != nil {
		return domain.TariffRate{}, err
	}

	point, ok := FindMeterPoint(account, r.mpan)
	if !ok {
		return domain.TariffRate{}, fmt.Errorf("%w: no property has meter point %s", domain.ErrNotFound, r.mpan)
	}

	agreement, err := CurrentAgreement(point.Agreements)
	if err != nil {
		return domain.TariffRate{}, fmt.Errorf("meter point %s: %w", r.mpan, err)
	}

	code, err := ParseTariffCode(agreement.TariffCode)
	if err != nil {
		return domain.TariffRate{}, err
	}

	product, err := r.catalog.Product(ctx, code.ProductCode)
	if err != nil {
		return domain.TariffRate{}, err
	}

	rate, err := RateFor(product, code)
	if err != nil {
		return domain.TariffRate{}, err
	}

	r.logger.Debug("tariff resolved",
		zap.String("tariff_code", code.Raw),
		zap.String("unit_rate", rate.UnitRate.String()),
		zap.String("standing_charge", rate.StandingCharge.String()),
	)
	return rate, nil
}

// FindMeterPoint returns the first meter point with the given MPAN, scanning
// properties in order.
func FindMeterPoint(account octopus.Account, mpan string) (octopus.MeterPoint, bool) {
	for _, property := range account.Properties {
		for _, point := range property.ElectricityMeterPoints {
			if point.MPAN == mpan {
				return point, true
			}
		}
	}
	return octopus.MeterPoint{}, false
}

// CurrentAgreement returns the agreement with the latest valid_to. An
// open-ended agreement (nil ValidTo) is later than any dated one; ties keep
// the first encountered.
func CurrentAgreement(agreements []domain.TariffAgreement) (domain.TariffAgreement, error) {
	if len(agreements) == 0 {
		return domain.TariffAgreement{}, fmt.Errorf("%w: no tariff agreements", domain.ErrNotFound)
	}

	current := agreements[0]
	for _, a := range agreements[1:] {
		if laterThan(a, current) {
			current = a
		}
	}
	return current, nil
}

func laterThan(a, b domain.TariffAgreement) bool {
	switch {
	case b.ValidTo == nil:
		return false
	case a.ValidTo == nil:
		return true
	default:
		return a.ValidTo.After(*b.ValidTo)
	}
}

// ParseTariffCode splits a code such as "E-1R-VAR-22-11-01-A" into product
// code "VAR-22-11-01" and region "A". The first two segments are dropped.
func ParseTariffCode(raw string) (domain.TariffCode, error) {
	parts := strings.Split(raw, tariffCodeSeparator)
	if len(parts) < 4 {
		return domain.TariffCode{}, fmt.Errorf("%w: malformed tariff code %q", domain.ErrNotFound, raw)
	}

	region := parts[len(parts)-1]
	product := strings.Join(parts[2:len(parts)-1], tariffCodeSeparator)
	if region == "" || product == "" {
		return domain.TariffCode{}, fmt.Errorf("%w: malformed tariff code %q", domain.ErrNotFound, raw)
	}

	return domain.TariffCode{
		Raw:         raw,
		ProductCode: product,
		Region:      region,
	}, nil
}

// RateFor extracts the direct debit prices for code's region from product
func RateFor(product octopus.Product, code domain.TariffCode) (domain.TariffRate, error) {
	methods, ok := product.SingleRegisterElectricityTariffs["_"+code.Region]
	if !ok {
		return domain.TariffRate{}, fmt.Errorf("%w: product %s has no tariff for region %s", domain.ErrNotFound, code.ProductCode, code.Region)
	}
	prices, ok := methods[PaymentMethod]
	if !ok {
		return domain.TariffRate{}, fmt.Errorf("%w: product %s region %s has no %s prices", domain.ErrNotFound, code.ProductCode, code.Region, PaymentMethod)
	}
	if prices.StandardUnitRateIncVAT == nil || prices.StandingChargeIncVAT == nil {
		return domain.TariffRate{}, fmt.Errorf("%w: product %s region %s is missing prices", domain.ErrNotFound, code.ProductCode, code.Region)
	}

	return domain.TariffRate{
		Name:           product.DisplayName,
		UnitRate:       units.PenceToPounds(*prices.StandardUnitRateIncVAT, units.UnitRatePlaces),
		StandingCharge: units.PenceToPounds(*prices.StandingChargeIncVAT, units.StandingChargePlaces),
	}, nil
}
