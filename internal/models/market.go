package models

// AssetClass identifies one of the five asset buckets the return sampler
// and account return-blending logic operate over. Order matters: the
// covariance matrix and Cholesky factor are built in this fixed order.
type AssetClass string

const (
	AssetEquities AssetClass = "equities"
	AssetBonds    AssetClass = "bonds"
	AssetLivrets  AssetClass = "livrets"
	AssetCrypto   AssetClass = "crypto"
	AssetOther    AssetClass = "other"
)

// AssetClassOrder is the fixed ordering used for the covariance matrix
// and every vector indexed by asset class.
var AssetClassOrder = []AssetClass{AssetEquities, AssetBonds, AssetLivrets, AssetCrypto, AssetOther}

// AssetClassAssumption holds the annual return/volatility hypothesis for
// one asset class.
type AssetClassAssumption struct {
	ExpectedReturn float64  `json:"expectedReturn"`     // percent/yr, e.g. 7.0 = 7%
	Volatility     *float64 `json:"volatility,omitempty"` // percent/yr, nil = use default table
}

// DefaultVolatilities mirrors the reference implementation's fallback
// table for asset classes whose volatility wasn't supplied.
var DefaultVolatilities = map[AssetClass]float64{
	AssetEquities: 15.0,
	AssetBonds:    6.0,
	AssetLivrets:  0.5,
	AssetCrypto:   80.0,
	AssetOther:    10.0,
}

// MarketAssumptions is the container of per-class return/volatility
// hypotheses, inflation assumptions, and pairwise correlations.
type MarketAssumptions struct {
	AssetClasses       map[AssetClass]AssetClassAssumption  `json:"assetClasses"`
	InflationMean      float64                               `json:"inflationMean"`      // percent/yr
	InflationVolatility float64                              `json:"inflationVolatility"` // percent/yr
	Correlations       map[AssetClass]map[AssetClass]float64 `json:"correlations,omitempty"`
}

// ExpectedReturn returns the annual expected return (percent) for a
// class, falling back to 0 when unset.
func (m *MarketAssumptions) ExpectedReturn(class AssetClass) float64 {
	if m == nil {
		return 0
	}
	if a, ok := m.AssetClasses[class]; ok {
		return a.ExpectedReturn
	}
	return 0
}

// VolatilityPercent returns the annual volatility (percent) for a class,
// falling back to DefaultVolatilities when unset.
func (m *MarketAssumptions) VolatilityPercent(class AssetClass) float64 {
	if m != nil {
		if a, ok := m.AssetClasses[class]; ok && a.Volatility != nil {
			return *a.Volatility
		}
	}
	return DefaultVolatilities[class]
}
