package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/VasiKumar/ClassAI/internal/pkg/errors"
	"github.com/VasiKumar/ClassAI/internal/report"
)

type ReportHandler struct {
	store *report.Store
}

func NewReportHandler(store *report.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

func (rh *ReportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	rows, err := rh.store.List(limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "report_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"reports": rows})
}

func (rh *ReportHandler) Get(c *gin.Context) {
	name := c.Param("name")
	row, err := rh.store.GetByName(name)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "report_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "report_get_failed", err)
		return
	}
	RespondOK(c, gin.H{"report": row})
}

func (rh *ReportHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := rh.store.DeleteByName(name); err != nil {
		RespondError(c, http.StatusInternalServerError, "report_delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": name})
}
