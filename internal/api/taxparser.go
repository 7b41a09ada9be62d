package api

import (
	"io"
	"net/http"

	"github.com/finviz/longview/internal/taxparser"
)

// handleParseBareme accepts an uploaded barème PDF (or a raw text
// paste) and returns the extracted progressive tax scale, so a client
// can look up their marginal rate without typing it in by hand.
func handleParseBareme(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if mf, _, err := r.FormFile("file"); err == nil {
		defer mf.Close()
		data, err := io.ReadAll(mf)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		bareme, err := taxparser.ParseBaremePDF(data)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, bareme)
		return
	}

	if contentType == "application/pdf" {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 5<<20))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Could not read request body")
			return
		}
		bareme, err := taxparser.ParseBaremePDF(data)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, bareme)
		return
	}

	text, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}
	bareme, err := taxparser.ParseBaremeText(string(text))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, bareme)
}
