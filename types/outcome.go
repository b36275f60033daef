package types

// Outcome is the closed result type of one gateway request. Exactly
// one of the five variants below is produced per completed request;
// the transport layer switches exhaustively over them.
//
// The interface is sealed: only types in this package satisfy it.
type Outcome interface {
	isOutcome()
}

// PaymentRequired is returned when no proof was supplied, or when the
// supplied proof matches none of the currently offered requirements.
// The challenge always reflects the gateway's current requirements,
// never the client's claim.
type PaymentRequired struct {
	Challenge *PaymentChallenge
}

// Success is returned after a proof verified and settled. Product
// content is released to the caller only through this variant.
type Success struct {
	Settlement *SettlementOutcome
	Product    *Product
}

// VerificationFailed is returned when a matched proof failed
// validation. Settlement is never attempted on this path.
type VerificationFailed struct {
	Reason string
}

// SettlementFailed is returned when a verified proof could not be
// executed. It is distinct from VerificationFailed: a verified but
// unsettled payment must not release product content.
type SettlementFailed struct {
	Reason string
}

// NotFound is returned when the vendor or the product cannot be
// resolved. Reason distinguishes only vendor-vs-product absence.
type NotFound struct {
	Reason string
}

func (PaymentRequired) isOutcome()    {}
func (Success) isOutcome()            {}
func (VerificationFailed) isOutcome() {}
func (SettlementFailed) isOutcome()   {}
func (NotFound) isOutcome()           {}
