package stats

import "math"

// InformationCriteria are the likelihood-based criteria used to rank fits of
// the same series. Lower is better for all three.
type InformationCriteria struct {
	LogLik float64
	AIC    float64
	AICc   float64
	BIC    float64
}

// GaussianLogLik is the concentrated Gaussian log-likelihood of n residuals
// with maximum likelihood variance sigma2.
func GaussianLogLik(sigma2 float64, n int) float64 {
	return -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
}

// CalculateIC derives AIC, AICc and BIC from a log-likelihood over nObs
// observations with nParams estimated parameters.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	deviance := -2 * logLik
	k := float64(nParams)
	aic := deviance + 2*k
	return &InformationCriteria{
		LogLik: logLik,
		AIC:    aic,
		AICc:   AICc(aic, nObs, nParams),
		BIC:    deviance + k*math.Log(float64(nObs)),
	}
}

// AICc adds the small sample correction 2k(k+1)/(n-k-1) to aic. It is +Inf
// once n-k-1 is no longer positive.
func AICc(aic float64, nObs, nParams int) float64 {
	rest := nObs - nParams - 1
	if rest <= 0 {
		return math.Inf(1)
	}
	k := float64(nParams)
	return aic + 2*k*(k+1)/float64(rest)
}
