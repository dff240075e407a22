package server

import (
	"io"
	"net/http"
	"time"

	"athena/internal/assistant"
	"athena/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the research assistant over REST.
type Handler struct {
	log       *logger.Logger
	assistant *assistant.ResearchAssistant
}

// NewHandler creates the REST handler.
func NewHandler(a *assistant.ResearchAssistant, log *logger.Logger) *Handler {
	return &Handler{log: log, assistant: a}
}

// SetupRouter configures and returns a Gin engine with all routes.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api/v1")
	{
		api.POST("/documents", h.uploadDocuments)
		api.DELETE("/documents/:id", h.deleteDocument)
		api.DELETE("/documents", h.clearDatabase)
		api.GET("/stats", h.stats)
		api.GET("/formats", h.formats)

		api.POST("/chat", h.chat)
		api.GET("/history", h.history)
		api.DELETE("/history", h.clearHistory)
	}

	return r
}

type fileStatusResponse struct {
	Name       string `json:"name"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
	Characters int    `json:"characters,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type uploadResponse struct {
	Files     []fileStatusResponse `json:"files"`
	Succeeded int                  `json:"succeeded"`
	Total     int                  `json:"total"`
	Summary   string               `json:"summary"`
}

// uploadDocuments ingests one or more multipart files under the "files"
// field and reports a per-file status plus a batch summary.
func (h *Handler) uploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded; use the \"files\" form field"})
		return
	}

	files := make([]assistant.FileInput, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		files = append(files, assistant.FileInput{Name: fh.Filename, Data: data})
	}

	result := h.assistant.ProcessDocuments(c.Request.Context(), files)

	resp := uploadResponse{
		Files:     make([]fileStatusResponse, len(result.Files)),
		Succeeded: result.Succeeded,
		Total:     result.Total,
		Summary:   result.Summary,
	}
	for i, fs := range result.Files {
		resp.Files[i] = fileStatusResponse{
			Name:       fs.Name,
			DocumentID: fs.DocumentID,
			Chunks:     fs.Chunks,
			Characters: fs.Characters,
			Message:    fs.Message,
			Success:    fs.Err == nil,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document id is required"})
		return
	}
	if err := h.assistant.DeleteDocument(c.Request.Context(), documentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": documentID})
}

func (h *Handler) clearDatabase(c *gin.Context) {
	if err := h.assistant.ClearDatabase(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

type documentStatsResponse struct {
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	FileType   string    `json:"file_type"`
	Chunks     int       `json:"chunks"`
	UploadTime time.Time `json:"upload_time"`
}

type statsResponse struct {
	TotalDocuments int                     `json:"total_documents"`
	TotalChunks    int                     `json:"total_chunks"`
	TotalVectors   int64                   `json:"total_vectors"`
	Documents      []documentStatsResponse `json:"documents"`
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.assistant.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := statsResponse{
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
		TotalVectors:   stats.TotalVectors,
		Documents:      make([]documentStatsResponse, len(stats.Documents)),
	}
	for i, doc := range stats.Documents {
		resp.Documents[i] = documentStatsResponse{
			DocumentID: doc.DocumentID,
			Name:       doc.Name,
			FileType:   doc.FileType,
			Chunks:     doc.Chunks,
			UploadTime: doc.UploadTime,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.assistant.SupportedFormats()})
}

type chatRequest struct {
	Query string `json:"query" binding:"required"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer := h.assistant.Chat(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

type historyTurnResponse struct {
	Query  string    `json:"query"`
	Answer string    `json:"answer"`
	At     time.Time `json:"at"`
}

func (h *Handler) history(c *gin.Context) {
	turns := h.assistant.History()
	resp := make([]historyTurnResponse, len(turns))
	for i, turn := range turns {
		resp[i] = historyTurnResponse{Query: turn.Query, Answer: turn.Answer, At: turn.At}
	}
	c.JSON(http.StatusOK, gin.H{"history": resp})
}

func (h *Handler) clearHistory(c *gin.Context) {
	h.assistant.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
