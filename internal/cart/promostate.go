package cart

// PromoState is the per-cart promo resolution state.
type PromoState string

const (
	PromoIdle     PromoState = "IDLE"     // no code entered
	PromoChecking PromoState = "CHECKING" // status request in flight
	PromoValid    PromoState = "VALID"    // status ok, detail fetched (or in flight)
	PromoInvalid  PromoState = "INVALID"  // status check or detail fetch failed
)

var validNext = map[PromoState]map[PromoState]bool{
	PromoIdle:     {PromoChecking: true},
	PromoChecking: {PromoValid: true, PromoInvalid: true},
	PromoValid:    {PromoIdle: true, PromoChecking: true, PromoInvalid: true},
	PromoInvalid:  {PromoIdle: true, PromoChecking: true},
}

func CanTransition(from, to PromoState) bool {
	return validNext[from][to]
}
