package handlers

import (
	"fmt"
	"time"

	"agrimono/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetReport streams the provincial monograph as a PDF download.
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	data, err := h.reportService.Generate(c.Context())
	if err != nil {
		h.logger.Error("Failed to generate report", zap.Error(err))
		return sourceErrorResponse(c, err)
	}

	filename := fmt.Sprintf("monographie-agricole-%s.pdf", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
