package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

// runDispatch executes one dispatch pass and reports the aggregate
// delivered count. Individual delivery failures are visible only
// through queue-entry state.
func (h *HandlerSet) runDispatch(ctx *fiber.Ctx) error {
	result, err := h.runner.Run(ctx.Context())
	if err != nil {
		return translateError(err)
	}

	response := fiber.Map{
		"success":   true,
		"processed": result.Processed,
	}
	if result.Message != "" {
		response["message"] = result.Message
	}

	return ctx.Status(http.StatusOK).JSON(response)
}

type queueEntryResponse struct {
	ID        uuid.UUID  `json:"id"`
	ContactID uuid.UUID  `json:"contact_id"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError *string    `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (h *HandlerSet) listCampaignQueue(ctx *fiber.Ctx) error {
	campaignID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	status := domain.QueueEntryStatus(ctx.Query("status"))
	switch status {
	case "", domain.QueueEntryStatusPending, domain.QueueEntryStatusSent, domain.QueueEntryStatusFailed:
	default:
		return fiber.NewError(http.StatusBadRequest, "invalid status filter")
	}

	entries, err := h.container.Repositories().Queue.ListByCampaign(ctx.Context(), campaignID, status, ctx.QueryInt("limit"))
	if err != nil {
		return translateError(err)
	}

	response := make([]queueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, queueEntryResponse{
			ID:        entry.ID,
			ContactID: entry.ContactID,
			Status:    string(entry.Status),
			Attempts:  entry.Attempts,
			LastError: entry.LastError,
			SentAt:    entry.SentAt,
			CreatedAt: entry.CreatedAt,
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"entries": response})
}
