package models

// CreditTrend describes the direction of the score against the stored one
type CreditTrend string

const (
	TrendImproving CreditTrend = "improving"
	TrendDeclining CreditTrend = "declining"
	TrendStable    CreditTrend = "stable"
)

// CreditFactors holds the five factor sub-scores, each in [300, 850]
type CreditFactors struct {
	PaymentHistory    int `json:"payment_history"`
	CreditUtilization int `json:"credit_utilization"`
	CreditLength      int `json:"credit_length"`
	CreditMix         int `json:"credit_mix"`
	NewCredit         int `json:"new_credit"`
}

// CreditScoreData represents a computed credit score
type CreditScoreData struct {
	Score           int           `json:"score"`
	Factors         CreditFactors `json:"factors"`
	Recommendations []string      `json:"recommendations"`
	Trend           CreditTrend   `json:"trend"`
}
