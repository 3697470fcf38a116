// README: Sales-tax rate per postal code and the policies for refreshing it.
package taxrate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("tax rate not found")
	ErrInvalidPostalCode = errors.New("invalid postal code")
)

type Source string

const (
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

// TaxRate is one row per postal code. TotalRate is a fraction, e.g. 0.06625.
type TaxRate struct {
	PostalCode  string          `json:"postal_code"`
	TotalRate   *decimal.Decimal `json:"total_rate"`
	Details     json.RawMessage  `json:"details,omitempty"`
	Source      Source           `json:"source"`
	DateUpdated time.Time        `json:"date_updated"`
}

// IsStale reports whether the rate must be fetched again: it was never set
// or it is older than maxAge.
func (r TaxRate) IsStale(now time.Time, maxAge time.Duration) bool {
	return r.TotalRate == nil || now.Sub(r.DateUpdated) > maxAge
}

// Rate returns the total rate, or zero when unset.
func (r TaxRate) Rate() decimal.Decimal {
	if r.TotalRate == nil {
		return decimal.Zero
	}
	return *r.TotalRate
}

// Policy controls whether a lookup may call the external tax-rate API.
type Policy int

const (
	// PolicyRefreshIfStale fetches on a miss or a stale row.
	PolicyRefreshIfStale Policy = iota
	// PolicyCacheOnly never fetches; unknown postal codes get the default rate.
	PolicyCacheOnly
	// PolicyForceRefresh always fetches.
	PolicyForceRefresh
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refresh_if_stale":
		return PolicyRefreshIfStale, nil
	case "cache_only":
		return PolicyCacheOnly, nil
	case "force_refresh":
		return PolicyForceRefresh, nil
	}
	return 0, fmt.Errorf("taxrate: unknown policy %q", s)
}

func (p Policy) String() string {
	switch p {
	case PolicyCacheOnly:
		return "cache_only"
	case PolicyForceRefresh:
		return "force_refresh"
	default:
		return "refresh_if_stale"
	}
}

// NormalizePostalCode trims and upper-cases a postal code and rejects
// anything that cannot be one.
func NormalizePostalCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 10 {
		return "", ErrInvalidPostalCode
	}
	for _, c := range code {
		if (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || c == '-' || c == ' ' {
			continue
		}
		return "", ErrInvalidPostalCode
	}
	return code, nil
}
