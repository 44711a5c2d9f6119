package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/ledger"
	"github.com/grievancechain/grievance_backend/models"
	"github.com/grievancechain/grievance_backend/utils"
)

const maxEvidenceBytes = 5 << 20 // 5 MB

func requireUser(c *gin.Context) (int, bool) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return userId, true
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrLedgerUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unavailable, please retry"})
	case errors.Is(err, utils.ErrLedgerRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ledger rejected the submission"})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case err.Error() == "unauthorized":
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// SubmitGrievanceHandler accepts a multipart form (title, category, evidence
// file), stores the evidence first, then runs the optimistic write path. The
// response carries the projection row before ledger finalization; the ledger
// id fills in once the creation event is projected.
func SubmitGrievanceHandler(store utils.EvidenceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "evidence storage unavailable"})
			return
		}

		title := c.PostForm("title")
		category := c.PostForm("category")
		if title == "" || category == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and category are required"})
			return
		}

		fileHeader, err := c.FormFile("evidence")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "evidence file is required"})
			return
		}
		if fileHeader.Size > maxEvidenceBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "evidence file exceeds 5 MB"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read evidence file"})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxEvidenceBytes+1))
		file.Close()
		if err != nil || int64(len(data)) > maxEvidenceBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read evidence file"})
			return
		}

		// Storage failure aborts the whole write before any ledger interaction.
		evidenceRef, err := store.Store(c.Request.Context(), data)
		if err != nil {
			config.LogError(config.GetLogger(), "grievance.go", "SubmitGrievanceHandler", "evidence store", nil, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not store evidence"})
			return
		}

		grievance, err := models.CreateGrievance(c.Request.Context(), &models.NewGrievance{
			Title:       title,
			Category:    category,
			EvidenceRef: evidenceRef,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"grievance": grievance}})
	}
}

func ListGrievancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		var filter models.GrievanceFilter
		if v := c.Query("status"); v != "" {
			status := models.GrievanceStatus(v)
			if !status.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
			filter.Status = &status
		}
		if v := c.Query("sentiment"); v != "" {
			sentiment := models.Sentiment(v)
			filter.Sentiment = &sentiment
		}
		if v := c.Query("category"); v != "" {
			filter.Category = &v
		}

		grievances, err := models.GetGrievances(c.Request.Context(), &filter)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(grievances),
			"data":    gin.H{"grievances": grievances},
		})
	}
}

// GetGrievanceDetailHandler reads through to the ledger for the authoritative
// finalized state, bypassing the cache.
func GetGrievanceDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		ledgerId, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grievance id"})
			return
		}

		record, err := ledger.GetClient().FetchRecord(c.Request.Context(), ledgerId)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		status, err := models.GrievanceStatusFromChainCode(record.StatusCode)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"grievance": gin.H{
					"id":              record.ID,
					"student_id":      record.StudentId,
					"title":           record.Title,
					"evidence_ref":    record.EvidenceRef,
					"status":          status,
					"created_at":      record.CreatedAt,
					"last_updated_at": record.LastUpdatedAt,
				},
			},
		})
	}
}

type statusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatusHandler validates and submits a status change, then blocks
// until the ledger confirms finality before answering.
func UpdateStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		ledgerId, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grievance id"})
			return
		}

		var input statusChangeRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target := models.GrievanceStatus(input.Status)
		if !target.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		if err := models.RequestStatusChange(c.Request.Context(), ledgerId, target); err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "grievance status updated"})
	}
}

func AuditTrailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		ledgerId, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grievance id"})
			return
		}

		submissions, err := models.GetGrievanceAuditTrail(c.Request.Context(), ledgerId)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(submissions),
			"data":    gin.H{"transactions": submissions},
		})
	}
}

func AdminStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		stats, err := models.GetAdminDashboardStats(c.Request.Context())
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"stats": stats}})
	}
}

func SummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireUser(c); !ok {
			return
		}

		summary, err := models.GetGrievanceSummary(c.Request.Context())
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"summary": summary}})
	}
}
