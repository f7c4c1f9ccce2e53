package handlers

import (
	"net/http"

	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/services"
)

type SearchHandler struct {
	inventory *services.InventoryService
	log       *logger.Logger
}

func NewSearchHandler(inv *services.InventoryService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{inventory: inv, log: log.With("handler", "SearchHandler")}
}

// AskQuestion answers a similarity question against one table with the closest record names.
func (h *SearchHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	question := r.PostFormValue("question")
	table := r.PostFormValue("table_name")

	names, err := h.inventory.AskQuestion(r.Context(), table, question)
	if err != nil {
		renderFailure(w, h.log, err, nil)
		return
	}
	render(w, h.log, http.StatusOK, "answer.html", answerPage{Table: table, Question: question, Answers: names})
}

func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
