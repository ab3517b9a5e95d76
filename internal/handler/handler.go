package handlers

import (
	"html/template"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mosaicboard/internal/config"
	"mosaicboard/internal/metrics"
	"mosaicboard/internal/service"
)

type Handlers struct {
	BoardService  service.BoardService
	CardService   service.CardService
	AuthService   service.AuthService
	TablesService service.TablesService
	Metrics       *metrics.Metrics
	Cfg           *config.Config
	Validate      *validator.Validate
	ViewTemplate  *template.Template
}

func NewHandlers(service *service.Service, config *config.Config, metrics *metrics.Metrics) *Handlers {
	return &Handlers{
		BoardService:  service.Board,
		CardService:   service.Card,
		AuthService:   service.Auth,
		TablesService: service.Tables,
		Metrics:       metrics,
		Cfg:           config,
		Validate:      NewValidator(),
		ViewTemplate:  viewTemplate,
	}
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}
