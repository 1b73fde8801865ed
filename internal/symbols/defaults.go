package symbols

import "RangeScout/internal/model"

var defaultUniverse = []string{
	"MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX",
	"AMD", "INTC", "CRM", "ORCL", "ADBE", "PYPL", "IBM", "CSCO", "NOW", "SNOW",
	"V", "MA", "JPM", "BAC", "WFC", "GS", "MS", "C", "AXP",
	"JNJ", "PFE", "UNH", "ABBV", "MRK", "TMO", "ABT", "CVS", "AMGN", "GILD",
	"DIS", "KO", "PEP", "WMT", "HD", "MCD", "SBUX", "NKE", "TGT", "COST",
	"BA", "CAT", "GE", "MMM", "XOM", "CVX", "COP", "SLB", "EOG", "HAL",
	"VZ", "T", "TMUS", "CMCSA", "CHTR", "WBD", "FOXA",
	"SPY", "QQQ", "IWM", "VTI", "VNQ", "AMT", "CCI", "EQIX", "PLD",
	"ROKU", "SHOP", "ZM", "DOCU", "OKTA", "TWLO", "NET", "DDOG",
}

// Default returns the built-in universe used when no list is configured.
func Default() []model.Symbol {
	return Dedupe(defaultUniverse)
}
