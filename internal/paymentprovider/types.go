package paymentprovider

// CreateSubscriptionRequest asks the provider for a recurring subscription on
// a pre-configured plan.
type CreateSubscriptionRequest struct {
	PlanID         string `json:"plan_id"`
	TotalCount     int    `json:"total_count"`
	CustomerNotify int    `json:"customer_notify,omitempty"`
}

// Subscription is the provider's view of a subscription.
type Subscription struct {
	ID     string `json:"id"`
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}
