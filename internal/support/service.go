package support

import (
	"context"
	"log/slog"

	"concierge/internal/hubspot"
	"concierge/internal/store"

	"gorm.io/gorm"
)

type crmClient interface {
	CreateTicket(ctx context.Context, req hubspot.TicketRequest) hubspot.TicketResult
}

type Service struct {
	DB     *gorm.DB
	Store  *store.Store
	CRM    crmClient
	Logger *slog.Logger
}

type TicketInput struct {
	Subject     string
	Description string
	Type        string
	Priority    string
}

type TicketResult struct {
	Success         bool   `json:"success"`
	TicketID        uint64 `json:"ticketId"`
	HubSpotTicketID string `json:"hubspotTicketId,omitempty"`
}

// Create records a ticket locally, then mirrors it into the CRM. The mirror
// is best-effort: a CRM failure still leaves a successful local ticket.
func (s *Service) Create(ctx context.Context, customerID, conversationID uint64, in TicketInput) (TicketResult, error) {
	customer, err := s.Store.GetCustomer(ctx, customerID)
	if err != nil {
		return TicketResult{}, err
	}

	ticket := store.SupportTicket{
		CustomerID:     customerID,
		ConversationID: conversationID,
		TicketType:     in.Type,
		Subject:        in.Subject,
		Description:    in.Description,
		Status:         "open",
	}
	if err := s.DB.WithContext(ctx).Create(&ticket).Error; err != nil {
		return TicketResult{}, err
	}

	crm := s.CRM.CreateTicket(ctx, hubspot.TicketRequest{
		Subject:       in.Subject,
		Description:   in.Description,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		Priority:      in.Priority,
		TicketType:    in.Type,
	})

	res := TicketResult{Success: true, TicketID: ticket.ID}
	if crm.Success {
		res.HubSpotTicketID = crm.TicketID
		if err := s.DB.WithContext(ctx).Model(&store.SupportTicket{}).
			Where("id = ?", ticket.ID).
			Update("hubspot_ticket_id", crm.TicketID).Error; err != nil {
			s.Logger.Error("failed to backfill crm ticket id", slog.Any("error", err))
		}
		if crm.ContactID != "" && customer.HubSpotID == "" {
			if err := s.DB.WithContext(ctx).Model(&store.Customer{}).
				Where("id = ?", customerID).
				Update("hubspot_contact_id", crm.ContactID).Error; err != nil {
				s.Logger.Error("failed to backfill crm contact id", slog.Any("error", err))
			}
		}
	}

	return res, nil
}
