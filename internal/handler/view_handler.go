package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"mosaicboard/internal/service"
)

//go:embed templates/view.html
var templateFiles embed.FS

var viewTemplate = template.Must(template.ParseFS(templateFiles, "templates/view.html"))

type viewData struct {
	Name       string
	Intro      string
	Config     service.ViewConfig
	ConfigJSON string
	LoaderURL  string
}

// ViewBoard renders the page that boots the client application.
func (h *Handlers) ViewBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	boardID, err := pathID(r, "boardid")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	page, err := h.BoardService.ViewBoard(r.Context(), boardID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	configJSON, err := json.Marshal(page.Config)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data := viewData{
		Name:       page.Board.Name,
		Intro:      page.Board.Intro,
		Config:     page.Config,
		ConfigJSON: string(configJSON),
		LoaderURL:  h.Cfg.LoaderURL,
	}

	var buf bytes.Buffer
	if err := h.ViewTemplate.Execute(&buf, data); err != nil {
		zap.L().Error("failed to render board view", zap.Int64("boardid", boardID), zap.Error(err))
		WriteError(w, "Internal server error", http.StatusInternalServerError, CodeServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
