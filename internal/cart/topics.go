package cart

const (
	TopicCheckoutSubmitted = "cart.checkout.submitted"
	TopicOrderPlaced       = "cart.order.placed"
	TopicOrderRejected     = "cart.order.rejected"
)

// Partition key = cart_id, supaya semua event 1 cart maintain urutan.
func PartitionKey(cartID string) []byte { return []byte(cartID) }
