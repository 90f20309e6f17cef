package tws

// Upstream feed error codes the relay classifies explicitly. Everything
// else defaults to a permanent per-symbol failure so unknown errors never
// cause a subscription storm.
const (
	codeSecurityNotFound     = 200   // no security definition for the request
	codeNotSubscribedMktData = 354   // market data not subscribed for this contract
	codeStaleRequestID       = 502   // couldn't connect / request id unusable, retry with a new one
	codeNotConnected         = 504   // session lost mid-request
	codeHistoricalDenied     = 10168 // requested market data is not subscribed
	codeDisplayingDelayed    = 10190 // max number of tickers reached
	codeMarketDataFarm       = 10197 // no market data during competing live session
)

// -----------------------------------------------------------------------------

// errorAction is what the session manager does with a classified feed error.
type errorAction int

const (
	actionFailSymbol errorAction = iota
	actionRegenerateID
	actionSessionFatal
	actionLogOnly
)

// -----------------------------------------------------------------------------

// isInformational reports whether the code sits below the severity floor:
// the 2000-2999 range carries connectivity notices, not errors.
func isInformational(code int) bool {
	return code >= 2000 && code < 3000
}

// -----------------------------------------------------------------------------

// classifyError maps an upstream error code onto the subscription action.
func classifyError(code int) errorAction {
	if isInformational(code) {
		return actionLogOnly
	}

	switch code {
	case codeSecurityNotFound, codeNotSubscribedMktData, codeHistoricalDenied, codeDisplayingDelayed:
		return actionFailSymbol
	case codeStaleRequestID:
		return actionRegenerateID
	case codeNotConnected:
		return actionSessionFatal
	case codeMarketDataFarm:
		return actionLogOnly
	default:
		return actionFailSymbol
	}
}
