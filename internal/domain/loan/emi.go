package loan

import "math"

// MonthlyInstallment computes the fixed monthly payment for a loan using
// compound interest amortization. The annual rate is given in percent and
// converted to a monthly fraction (rate / 12 / 100). A zero rate degrades
// to straight principal division.
func MonthlyInstallment(principal Money, annualRatePercent Money, tenureMonths int) Money {
	if tenureMonths <= 0 {
		return 0
	}
	monthlyRate := annualRatePercent / 1200.0
	if monthlyRate == 0 {
		return roundTo(principal/float64(tenureMonths), 2)
	}
	compound := math.Pow(1+monthlyRate, float64(tenureMonths))
	emi := principal * monthlyRate * compound / (compound - 1)
	return roundTo(emi, 2)
}

func roundTo(n float64, decimals uint32) float64 {
	return math.Round(n*math.Pow(10, float64(decimals))) / math.Pow(10, float64(decimals))
}
