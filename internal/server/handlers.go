package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easytextract/easytextract/constants"
	"github.com/easytextract/easytextract/internal/entity"
	"github.com/easytextract/easytextract/internal/extract"
	"github.com/easytextract/easytextract/internal/store"
)

type extractRequest struct {
	Path string `json:"path" binding:"required"`
}

type extractResponse struct {
	FileID     string   `json:"file_id,omitempty"`
	JobID      string   `json:"job_id,omitempty"`
	Format     string   `json:"format"`
	Method     string   `json:"method"`
	Pages      int      `json:"pages"`
	Language   string   `json:"language,omitempty"`
	Confidence float32  `json:"confidence,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Text       string   `json:"text"`
}

// extractHandler accepts either a multipart upload (field "file") or a JSON
// body naming a path on the server's filesystem.
func (s *Server) extractHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var path string
	if file, err := c.FormFile("file"); err == nil {
		if s.staging == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
			return
		}
		if file.Size > s.opts.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer src.Close()

		key := uuid.New().String() + filepath.Ext(file.Filename)
		staged, err := s.staging.Save(ctx, key, src)
		if err != nil {
			s.logger.Error("failed to stage upload", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
			return
		}
		defer func() {
			if err := s.staging.Remove(ctx, key); err != nil {
				s.logger.Warn("failed to remove staged upload", "key", key, "error", err)
			}
		}()
		path = staged
	} else {
		var req extractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "either a file upload or a path is required"})
			return
		}
		path = req.Path
	}

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("input not readable: %v", err)})
		return
	}

	s.metrics.JobStarted()
	defer s.metrics.JobFinished()

	var (
		fileID   uuid.UUID
		existed  bool
		recorded bool
	)
	if s.store != nil {
		var err error
		fileID, existed, err = s.registerFile(c, path)
		if err != nil {
			s.logger.Error("failed to register file", "path", path, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register file"})
			return
		}
		recorded = true
		_ = existed // re-extraction over HTTP is intentional even for known hashes
	}

	started := time.Now().UTC()
	res, err := s.extractor.Extract(ctx, path)

	var jobID uuid.UUID
	if recorded {
		job := &entity.ExtractJob{
			FileID:     fileID,
			Format:     res.Format,
			Method:     res.Method,
			Language:   res.Language,
			Pages:      res.Pages,
			Confidence: float64(res.Confidence),
			TextBytes:  len(res.Text),
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
			DurationMS: res.Duration.Milliseconds(),
		}
		if err != nil {
			job.Status = string(constants.JobStatusFailed)
			job.ErrorMessage = err.Error()
		} else {
			job.Status = string(constants.JobStatusSucceeded)
		}
		if rerr := s.store.RecordJob(ctx, job); rerr != nil {
			s.logger.Warn("failed to record job", "error", rerr)
		} else {
			jobID = job.ID
		}
	}

	if err != nil {
		s.metrics.ObserveJob("failed", res.Method, res.Duration)
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, extract.ErrUnsupported):
			status = http.StatusUnsupportedMediaType
		case errors.Is(err, extract.ErrNoText):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error(), "warnings": res.Warnings})
		return
	}
	s.metrics.ObserveJob("succeeded", res.Method, res.Duration)

	resp := extractResponse{
		Format:     res.Format,
		Method:     res.Method,
		Pages:      res.Pages,
		Language:   res.Language,
		Confidence: res.Confidence,
		Warnings:   res.Warnings,
		Text:       res.Text,
	}
	if fileID != uuid.Nil {
		resp.FileID = fileID.String()
	}
	if jobID != uuid.Nil {
		resp.JobID = jobID.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) registerFile(c *gin.Context, path string) (uuid.UUID, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return uuid.Nil, false, err
	}
	src := &entity.SourceFile{
		SourcePath:  path,
		Filename:    filepath.Base(path),
		FileExt:     constants.NormalizeExt(filepath.Ext(path)),
		FileSize:    size,
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		CreatedAt:   time.Now().UTC(),
	}
	return s.store.UpsertFile(c.Request.Context(), src)
}

func (s *Server) listJobs(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}
	jobs, err := s.store.Jobs.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) getJob(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	job, err := s.store.Jobs.GetByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to load job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) exportJobs(c *gin.Context) {
	if s.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no database configured"})
		return
	}
	limit := 1000
	format := c.DefaultQuery("format", "xlsx")
	switch format {
	case "xlsx":
		data, err := s.exporter.JobsXLSX(c.Request.Context(), limit)
		if err != nil {
			s.logger.Error("xlsx export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="extractions.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := s.exporter.JobsCSV(c.Request.Context(), limit)
		if err != nil {
			s.logger.Error("csv export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="extractions.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
	}
}
