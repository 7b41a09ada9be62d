package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/finviz/longview/internal/models"
	"github.com/finviz/longview/internal/reports"
	"github.com/finviz/longview/internal/storage"
)

// ReportRequest contains the data to render into a PDF: the client's
// current accounts plus whichever projection results the caller
// already computed via the projection endpoints.
type ReportRequest struct {
	Accounts       []models.InvestmentAccount         `json:"accounts"`
	Capitalization *models.MonteCarloResult           `json:"capitalization,omitempty"`
	Retirement     *models.RetirementMonteCarloResult `json:"retirement,omitempty"`
}

// handleGenerateReport generates a PDF retirement projection report
func handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req ReportRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	clientName := user.Name
	advisorName := ""
	if client := getClientContext(r); client != nil {
		clientName = client.Name
		advisorName = user.Name
	}

	totalCapital := 0.0
	for _, a := range req.Accounts {
		totalCapital += a.CurrentBalance
	}

	reportData := reports.ReportData{
		ClientName:     clientName,
		AdvisorName:    advisorName,
		GeneratedAt:    time.Now(),
		Accounts:       req.Accounts,
		TotalCapital:   totalCapital,
		Capitalization: req.Capitalization,
		Retirement:     req.Retirement,
	}

	pdfBytes, err := reports.GenerateFinancialPlanReport(reportData)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	filename := fmt.Sprintf("retirement_projection_%s_%s.pdf",
		sanitizeFilename(clientName),
		time.Now().Format("2006-01-02"))

	if storage.DefaultStorage != nil {
		if storedPath, err := storage.DefaultStorage.Save(pdfBytes, filename, true); err != nil {
			log.Printf("report storage: failed to archive %s: %v", filename, err)
		} else {
			w.Header().Set("X-Report-Archive-Path", storedPath)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// sanitizeFilename removes/replaces characters that are unsafe for filenames
func sanitizeFilename(name string) string {
	result := make([]byte, 0, len(name))
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, byte(c))
		} else if c == ' ' {
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return "report"
	}
	return string(result)
}
