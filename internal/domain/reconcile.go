package domain

// Status mapping applied when a provider refund event is reconciled. The three
// entities move together; these helpers keep the mapping in one place.

func IntentStatusForRefund(full bool) IntentStatus {
	if full {
		return IntentRefunded
	}
	return IntentPartiallyRefunded
}

func RefundRequestStatusForRefund(full bool) RefundRequestStatus {
	if full {
		return RefundRefunded
	}
	return RefundPartiallyRefunded
}

func BookingPaymentStatusForRefund(full bool) PaymentStatus {
	if full {
		return PaymentRefunded
	}
	return PaymentPartiallyRefunded
}

// RefundedBookingStatus is the booking status a fully refunded booking lands
// in. Hire bookings are marked declined_refunded; service and sales bookings
// fall back to cancelled.
func RefundedBookingStatus(t BookingType) BookingStatus {
	if t == BookingHire {
		return BookingDeclinedRefunded
	}
	return BookingCancelled
}
