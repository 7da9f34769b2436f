package auction

import "github.com/erazemk/bidsphere/internal/model"

// Won returns the auctions identity won: it is the highest bidder and the
// auction is not marked active.
func Won(auctions []model.Auction, identity string) []model.Auction {
	if identity == "" {
		return nil
	}
	var out []model.Auction
	for _, a := range auctions {
		if a.HighestBidder == identity && !a.IsActive {
			out = append(out, a)
		}
	}
	return out
}

// CanPay reports whether a payment may still be made for a.
func CanPay(a *model.Auction) bool {
	return a.PaymentStatus != model.PaymentCompleted
}

// CheckPayment validates the chosen payment method.
func CheckPayment(method model.PaymentMethod) error {
	if method == "" {
		return invalid("paymentMethod", "please select a payment method")
	}
	if !method.Valid() {
		return invalid("paymentMethod", "unsupported payment method %q", method)
	}
	return nil
}
