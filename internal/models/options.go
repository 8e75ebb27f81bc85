package models

// Quote represents a two-sided quote for one option contract.
type Quote struct {
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Mid       float64 `json:"mid"`
	SpreadPct float64 `json:"spread_pct"`
}

// ChainItem represents a single strike in the option chain.
type ChainItem struct {
	Strike       float64 `json:"strike"`
	IV           float64 `json:"iv"`
	OpenInterest int     `json:"oi"`
	Volume       int     `json:"vol"`
	Call         Quote   `json:"call"`
	Put          Quote   `json:"put"`
}

// MaxSpreadPct returns the wider of the call and put spreads.
func (c ChainItem) MaxSpreadPct() float64 {
	if c.Call.SpreadPct > c.Put.SpreadPct {
		return c.Call.SpreadPct
	}
	return c.Put.SpreadPct
}

// Chain represents a synthetic option chain for one expiry.
type Chain struct {
	Spot  float64     `json:"spot"`
	DTE   int         `json:"dte"`
	Step  float64     `json:"step"`
	Items []ChainItem `json:"items"`
}

// Lookup returns the item at strike k.
func (c *Chain) Lookup(k float64) (ChainItem, bool) {
	for _, it := range c.Items {
		if it.Strike == k {
			return it, true
		}
	}
	return ChainItem{}, false
}

// StrategyKind identifies a recommender strategy family.
type StrategyKind string

const (
	StrategySingleCall    StrategyKind = "single_call"
	StrategyBullPutCredit StrategyKind = "bull_put_credit_spread"
)

// CostType tells whether a position is opened for a debit or a credit.
type CostType string

const (
	CostDebit  CostType = "debit"
	CostCredit CostType = "credit"
)

// CandidateLegs describes the strikes and prices of a candidate.
type CandidateLegs struct {
	Strike   float64 `json:"strike,omitempty"`
	Premium  float64 `json:"premium,omitempty"`
	ShortPut float64 `json:"short_put,omitempty"`
	LongPut  float64 `json:"long_put,omitempty"`
	Credit   float64 `json:"credit,omitempty"`
}

// LiquidityMeta carries the liquidity figures of a candidate's anchor strike.
type LiquidityMeta struct {
	OpenInterest int     `json:"oi"`
	Volume       int     `json:"vol"`
	MaxSpreadPct float64 `json:"max_spread_pct"`
}

// Candidate is one scored strategy proposal. A nil MaxProfit means the
// upside is unbounded.
type Candidate struct {
	Strategy       StrategyKind  `json:"strategy"`
	Legs           CandidateLegs `json:"legs"`
	ExpectedProfit float64       `json:"expected_profit"`
	ProbProfit     float64       `json:"prob_profit"`
	EntryCost      float64       `json:"entry_cost"`
	CostType       CostType      `json:"cost_type"`
	MaxLoss        float64       `json:"max_loss"`
	MaxProfit      *float64      `json:"max_profit"`
	Breakeven      float64       `json:"breakeven"`
	VarWorstLoss   float64       `json:"var_worst_loss"`
	RewardRisk     float64       `json:"reward_risk"`
	Meta           LiquidityMeta `json:"meta"`
	Score          float64       `json:"score"`
}

// Positions converts the candidate into portfolio legs for the given
// number of contracts.
func (c Candidate) Positions(contracts int) []Leg {
	switch c.Strategy {
	case StrategySingleCall:
		return []Leg{
			OptionLeg{Type: Call, Side: Long, Strike: c.Legs.Strike, Premium: c.Legs.Premium, Qty: contracts, ContractSize: DefaultContractSize},
		}
	case StrategyBullPutCredit:
		// The whole credit is booked on the short leg.
		return []Leg{
			OptionLeg{Type: Put, Side: Short, Strike: c.Legs.ShortPut, Premium: c.Legs.Credit, Qty: contracts, ContractSize: DefaultContractSize},
			OptionLeg{Type: Put, Side: Long, Strike: c.Legs.LongPut, Premium: 0, Qty: contracts, ContractSize: DefaultContractSize},
		}
	}
	return nil
}

// MarketTick is a synthetic live quote.
type MarketTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TS     float64 `json:"ts"`
}
