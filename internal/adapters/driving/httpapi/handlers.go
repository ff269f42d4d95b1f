package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Messages returned to callers. Clients match on them, keep them stable.
const (
	msgNoFile         = "Nenhum arquivo PDF enviado ou arquivo inválido."
	msgOnlyPDF        = "Apenas arquivos PDF são permitidos!"
	msgTooLarge       = "O arquivo excede o limite de 10MB."
	msgMissingFrom    = "O campo 'from' é obrigatório para o envio do e-mail."
	msgInvalidBody    = "Corpo da requisição inválido."
	msgInvalidDate    = "Data de publicação inválida, use o formato AAAA-MM-DD."
	msgProcessFailure = "Falha ao processar o arquivo."
)

// uploadField is the multipart field carrying the PDF.
const uploadField = "pdfFile"

// multipartOverhead is the allowance for multipart framing on top of the file limit.
const multipartOverhead = 1 << 20

// dateLayout is the accepted publication date format.
const dateLayout = "2006-01-02"

// emailRequest is the JSON form of /upload-pdf: the text is sent to From by email.
type emailRequest struct {
	From        string `json:"from"`
	Subject     string `json:"subject"`
	PDFText     string `json:"pdfText"`
	PublishedAt string `json:"published_at"`
}

// classifyRequest is the body of /v1/classify.
type classifyRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Kind    domain.ErrorKind `json:"kind,omitempty"`
	Details string           `json:"details,omitempty"`
	JobID   string           `json:"job_id,omitempty"`
	State   domain.JobState  `json:"state,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "OK",
		"service": "triagem",
	}
	if p := s.ports.Triage.Policy(); p != nil {
		body["policy"] = p.Name
	}
	c.JSON(http.StatusOK, body)
}

// handleUpload serves both forms of /upload-pdf: a multipart PDF upload
// answered synchronously, and a JSON body whose analysis is emailed.
func (s *Server) handleUpload(c *gin.Context) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		s.handlePDFUpload(c)
		return
	}
	s.handleEmailRequest(c)
}

func (s *Server) handlePDFUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, domain.MaxUploadBytes+multipartOverhead)

	header, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNoFile})
		return
	}
	if header.Header.Get("Content-Type") != domain.MIMETypePDF {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgOnlyPDF})
		return
	}
	if header.Size > domain.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgTooLarge})
		return
	}

	publishedAt, err := parseDate(c.PostForm("published_at"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidDate})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNoFile})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgNoFile})
		return
	}

	raw := &domain.RawDocument{
		Name:     header.Filename,
		MIMEType: domain.MIMETypePDF,
		Content:  content,
	}
	doc, err := s.extract(c, raw)
	if err != nil {
		s.writeError(c, err, nil)
		return
	}

	s.triage(c, domain.TriageRequest{
		Document:    doc,
		PDF:         content,
		Channel:     domain.ChannelHTTP,
		PublishedAt: publishedAt,
	})
}

func (s *Server) handleEmailRequest(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody, Details: err.Error()})
		return
	}
	publishedAt, err := parseDate(req.PublishedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidDate})
		return
	}

	s.triage(c, domain.TriageRequest{
		Document:    domain.NewTextDocument(req.PDFText, req.Subject),
		Channel:     domain.ChannelEmail,
		Destination: strings.TrimSpace(req.From),
		Subject:     req.Subject,
		PublishedAt: publishedAt,
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody, Details: err.Error()})
		return
	}

	result, err := s.ports.Triage.Classify(c.Request.Context(), domain.NewTextDocument(req.Text, req.Source))
	if err != nil {
		s.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) triage(c *gin.Context, req domain.TriageRequest) {
	outcome, err := s.ports.Triage.Triage(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err, outcome)
		return
	}
	if outcome.Receipt == nil || outcome.Receipt.Reply == nil {
		s.writeError(c, fmt.Errorf("job %s finished without a reply", outcome.JobID), outcome)
		return
	}

	reply := outcome.Receipt.Reply
	if s.cfg.OnReply != nil {
		s.cfg.OnReply(reply)
	}
	c.JSON(http.StatusOK, reply)
}

// extract returns the document text of a PDF upload.
// A missing extractor yields an empty document so the oracle can read the PDF itself.
func (s *Server) extract(c *gin.Context, raw *domain.RawDocument) (domain.Document, error) {
	doc := domain.Document{SourceName: raw.Name, SizeBytes: raw.Size()}
	if s.ports.Extractor == nil {
		return doc, nil
	}

	extracted, err := s.ports.Extractor.Extract(c.Request.Context(), raw)
	if errors.Is(err, domain.ErrExtractorUnavailable) {
		slog.WarnContext(c.Request.Context(), "text extraction unavailable, forwarding pdf", "file", raw.Name, "error", err)
		return doc, nil
	}
	if err != nil {
		return domain.Document{}, err
	}
	extracted.SourceName = raw.Name
	return extracted, nil
}

// writeError maps err to a status by its kind.
// Caller errors are 400; everything else is 500 with the kind and detail.
func (s *Server) writeError(c *gin.Context, err error, outcome *domain.TriageOutcome) {
	kind := domain.KindOf(err)

	switch kind {
	case domain.KindMissingDestination:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingFrom, Kind: kind})
		return
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationMessage(err), Kind: kind, Details: err.Error()})
		return
	}

	resp := ErrorResponse{
		Error:   msgProcessFailure,
		Kind:    kind,
		Details: err.Error(),
	}
	if outcome != nil {
		resp.JobID = outcome.JobID
		resp.State = outcome.State
	}
	slog.ErrorContext(c.Request.Context(), "request failed",
		"path", c.Request.URL.Path,
		"kind", kind,
		"job_id", resp.JobID,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, resp)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return msgTooLarge
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return msgOnlyPDF
	default:
		return "Nenhum texto de intimação recebido."
	}
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
