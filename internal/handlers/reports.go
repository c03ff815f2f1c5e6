package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"github.com/pulsefit/fitcrm-backend/internal/models"
	"github.com/pulsefit/fitcrm-backend/internal/storage"
)

// ReportHandler builds spreadsheet exports for the studio owner.
type ReportHandler struct {
	store storage.Store
}

// NewReportHandler creates a new report handler.
func NewReportHandler(store storage.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// ExportSessions streams an xlsx of sessions in the given date range.
func (h *ReportHandler) ExportSessions(c *fiber.Ctx) error {
	filter := &models.SessionFilter{}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from date (want YYYY-MM-DD)",
			})
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid to date (want YYYY-MM-DD)",
			})
		}
		// Inclusive end of day.
		filter.To = t.AddDate(0, 0, 1)
	}

	sessions, err := h.store.ListSessions(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sessions",
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sessions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build report",
		})
	}

	headers := []string{"ID", "Date", "Client", "Trainer", "Type", "Status", "Duration (min)", "Price"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}

	var revenue float64
	for row, session := range sessions {
		clientName := fmt.Sprintf("lead #%d", session.LeadID)
		if lead, err := h.store.GetLead(session.LeadID); err == nil {
			clientName = lead.Name
		}
		trainerName := fmt.Sprintf("trainer #%d", session.TrainerID)
		if trainer, err := h.store.GetUser(session.TrainerID); err == nil {
			trainerName = trainer.Name
		}

		values := []interface{}{
			session.ID,
			session.StartsAt.Format("2006-01-02 15:04"),
			clientName,
			trainerName,
			session.Type,
			session.Status,
			session.Duration,
			session.Price,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		if session.Status == models.SessionStatusCompleted {
			revenue += session.Price
		}
	}

	summaryRow := len(sessions) + 3
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	_ = f.SetCellValue(sheet, cell, "Completed revenue")
	cell, _ = excelize.CoordinatesToCellName(2, summaryRow)
	_ = f.SetCellValue(sheet, cell, revenue)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build report",
		})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="sessions.xlsx"`)
	return c.Send(buf.Bytes())
}
