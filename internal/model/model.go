package model

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&APIKey{},
		&Node{},
		&Allocation{},
		&Nest{},
		&Egg{},
		&Server{},
		&Coupon{},
		&CouponRedemption{},
		&AnalyticsData{},
		&Setting{},
		&Ticket{},
		&TicketMessage{},
		&PushSubscription{},
	}
}
