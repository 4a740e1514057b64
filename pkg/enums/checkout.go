package enums

// CheckoutState is the position of a purchase in the checkout flow.
type CheckoutState string

const (
	CheckoutStateCart           CheckoutState = "cart"
	CheckoutStatePendingPayment CheckoutState = "pending_payment"
	CheckoutStateReturned       CheckoutState = "returned"
	CheckoutStateTerminal       CheckoutState = "terminal"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// CheckoutOutcome is the terminal result shown to the user after the gateway round trip.
type CheckoutOutcome string

const (
	CheckoutOutcomeConfirmed CheckoutOutcome = "confirmed"
	CheckoutOutcomeCancelled CheckoutOutcome = "cancelled"
	CheckoutOutcomeFailed    CheckoutOutcome = "failed"
	CheckoutOutcomeInvalid   CheckoutOutcome = "invalid"
)

// String implements fmt.Stringer.
func (o CheckoutOutcome) String() string {
	return string(o)
}

// IsSuccess reports whether the outcome completed without a user-facing error.
func (o CheckoutOutcome) IsSuccess() bool {
	return o == CheckoutOutcomeConfirmed || o == CheckoutOutcomeCancelled
}
