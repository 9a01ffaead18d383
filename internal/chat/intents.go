package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"concierge/internal/shopify"
	"concierge/internal/store"
)

var orderNumberRe = regexp.MustCompile(`#(\d+)`)

const ticketClarifyReply = "I'd be happy to create a support ticket for you! Could you please tell me:\n\n" +
	"1. What's the issue you're experiencing?\n" +
	"2. Is this related to a specific product or order?\n\n" +
	"Once you provide these details, I'll create a ticket for our support team."

// shortCircuit checks the deterministic intents that bypass the model call.
// Rules are checked in fixed priority order and only the first match fires.
// The order rule requires "track" together with "order" or an order marker;
// it falls through when the tracker finds nothing.
func (s *Service) shortCircuit(ctx context.Context, message string, customer store.Customer) (string, bool) {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "track") && (strings.Contains(lower, "order") || strings.Contains(lower, "#")) {
		identifier := customer.Email
		if m := orderNumberRe.FindStringSubmatch(message); m != nil {
			identifier = m[1]
		}

		if orders := s.Orders.TrackOrder(ctx, identifier); len(orders) > 0 {
			return formatOrder(orders[0]), true
		}
	}

	if strings.Contains(lower, "support ticket") ||
		strings.Contains(lower, "file a ticket") ||
		strings.Contains(lower, "create ticket") {
		return ticketClarifyReply, true
	}

	return "", false
}

func formatOrder(order shopify.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Order %s**\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "**Status:** %s\n", order.Status)
	fmt.Fprintf(&b, "**Total:** %s %s\n", order.Currency, order.Total)

	if order.TrackingNumber != "" {
		fmt.Fprintf(&b, "**Tracking:** %s\n", order.TrackingNumber)
		if order.TrackingURL != "" {
			fmt.Fprintf(&b, "[Track your package](%s)\n", order.TrackingURL)
		}
	}

	b.WriteString("\n**Items:**\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s (x%d)\n", item.Title, item.Quantity)
	}
	return b.String()
}
