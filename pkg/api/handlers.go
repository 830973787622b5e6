package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/export"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.catalog.Catalog()})
}

func (s *Server) schema(c *gin.Context) {
	schema, err := generateSchema[orchestrator.SessionResult]()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (s *Server) createSession(c *gin.Context) {
	s.process(c, "", http.StatusCreated)
}

func (s *Server) reprocessSession(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.store.Get(id); !ok {
		writeError(c, sessionNotFound(id))
		return
	}
	s.process(c, id, http.StatusOK)
}

func (s *Server) process(c *gin.Context, sessionID string, status int) {
	log := logging.NewLogger(c.Request.Context())

	var form processForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, model.NewError(model.KindInvalidConfig, "api.process", "invalid form", err))
		return
	}
	req, err := form.apply(s.defaults)
	if err != nil {
		writeError(c, err)
		return
	}

	audio, err := readAudio(c, req.AudioOptions.EffectiveMaxBytes())
	if err != nil {
		writeError(c, err)
		return
	}
	req.Audio = audio
	req.SessionID = sessionID

	result, err := s.runner.Run(c.Request.Context(), req)
	if result != nil {
		s.store.Put(result)
	}
	if err != nil {
		id := sessionID
		if result != nil {
			id = result.ID
		}
		log.Errorf("error: %v", err)
		writeSessionError(c, id, err)
		return
	}

	c.JSON(status, result)
}

func readAudio(c *gin.Context, maxBytes int64) (model.AudioInput, error) {
	const op = "api.readAudio"
	fh, err := c.FormFile("audio")
	if err != nil {
		return model.AudioInput{}, model.NewError(model.KindEmptyInput, op, "missing multipart field 'audio'", err)
	}
	if fh.Size > maxBytes {
		return model.AudioInput{}, model.NewError(
			model.KindPayloadTooLarge,
			op,
			fmt.Sprintf("audio is %d bytes, limit is %d bytes", fh.Size, maxBytes),
			nil,
		)
	}

	file, err := fh.Open()
	if err != nil {
		return model.AudioInput{}, model.NewError(model.KindInvalidConfig, op, "failed to open upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return model.AudioInput{}, model.NewError(model.KindTransientNetworkError, op, "failed to read upload", err)
	}

	audio := model.AudioInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := model.ValidateAudio(audio, maxBytes); err != nil {
		return model.AudioInput{}, err
	}
	return audio, nil
}

func (s *Server) getSession(c *gin.Context) {
	result, ok := s.store.Get(c.Param("id"))
	if !ok {
		writeError(c, sessionNotFound(c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.store.Delete(c.Param("id")) {
		writeError(c, sessionNotFound(c.Param("id")))
		return
	}
	c.Status(http.StatusNoContent)
}

type exportRequest struct {
	result  *orchestrator.SessionResult
	content export.Content
	format  export.Format
}

func (s *Server) parseExport(c *gin.Context) (exportRequest, bool) {
	result, ok := s.store.Get(c.Param("id"))
	if !ok {
		writeError(c, sessionNotFound(c.Param("id")))
		return exportRequest{}, false
	}
	content, err := export.ParseContent(c.Param("content"))
	if err != nil {
		writeError(c, err)
		return exportRequest{}, false
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatMarkdown)))
	if err != nil {
		writeError(c, err)
		return exportRequest{}, false
	}
	return exportRequest{result: result, content: content, format: format}, true
}

func (s *Server) downloadExport(c *gin.Context) {
	req, ok := s.parseExport(c)
	if !ok {
		return
	}

	data, err := export.Render(req.format, req.content, req.result)
	if err != nil {
		writeError(c, err)
		return
	}

	name := export.FileName(req.result.AudioName, req.content, req.format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentType(req.format), data)
}

func (s *Server) saveExport(c *gin.Context) {
	if s.sink == nil {
		writeError(c, model.NewError(model.KindInvalidConfig, "api.saveExport", "no export sink is configured", nil))
		return
	}
	req, ok := s.parseExport(c)
	if !ok {
		return
	}

	data, err := export.Render(req.format, req.content, req.result)
	if err != nil {
		writeError(c, err)
		return
	}

	key := req.result.ID + "/" + export.FileName(req.result.AudioName, req.content, req.format)
	ctx := c.Request.Context()
	if err := s.sink.Save(ctx, key, data, export.ContentType(req.format)); err != nil {
		writeError(c, err)
		return
	}
	url, err := s.sink.URL(ctx, key)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url, "sink": s.sink.Type(), "bytes": len(data)})
}

func sessionNotFound(id string) error {
	return model.NewError(model.KindNotFound, "api", fmt.Sprintf("session %q not found", strings.TrimSpace(id)), nil)
}
