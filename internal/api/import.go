package api

import (
	"io"
	"net/http"

	"github.com/finviz/longview/internal/ingestion"
)

// handleCSVImport parses a household-account CSV upload and returns the
// parsed accounts for the client to review before running a projection.
// Accounts are not persisted server-side; the caller includes them in
// the next projection request body.
func handleCSVImport(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var file io.Reader
	if mf, _, err := r.FormFile("file"); err == nil {
		defer mf.Close()
		file = mf
	} else {
		body := http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB cap
		defer body.Close()
		file = body
	}

	result, err := ingestion.ImportAccountsCSV(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}
