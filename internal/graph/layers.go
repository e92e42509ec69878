package graph

import (
	"github.com/phobologic/archlens/internal/model"
)

// dirLayers maps conventional directory names to layers.
var dirLayers = map[string]model.Layer{
	"controllers":  model.Presentation,
	"controller":   model.Presentation,
	"handlers":     model.Presentation,
	"handler":      model.Presentation,
	"views":        model.Presentation,
	"view":         model.Presentation,
	"api":          model.Presentation,
	"web":          model.Presentation,
	"http":         model.Presentation,
	"rest":         model.Presentation,
	"routes":       model.Presentation,
	"routers":      model.Presentation,
	"endpoints":    model.Presentation,
	"ui":           model.Presentation,
	"presentation": model.Presentation,

	"services":    model.Business,
	"service":     model.Business,
	"usecases":    model.Business,
	"usecase":     model.Business,
	"use_cases":   model.Business,
	"application": model.Business,
	"business":    model.Business,
	"logic":       model.Business,
	"interactors": model.Business,
	"managers":    model.Business,

	"repositories":   model.DataAccess,
	"repository":     model.DataAccess,
	"repos":          model.DataAccess,
	"repo":           model.DataAccess,
	"dao":            model.DataAccess,
	"db":             model.DataAccess,
	"database":       model.DataAccess,
	"persistence":    model.DataAccess,
	"storage":        model.DataAccess,
	"store":          model.DataAccess,
	"stores":         model.DataAccess,
	"data":           model.DataAccess,
	"dal":            model.DataAccess,
	"infrastructure": model.DataAccess,

	"models":       model.Domain,
	"model":        model.Domain,
	"domain":       model.Domain,
	"entities":     model.Domain,
	"entity":       model.Domain,
	"aggregates":   model.Domain,
	"valueobjects": model.Domain,
}

// wordLayers maps the final word of a file or type name to a layer.
var wordLayers = map[string]model.Layer{
	"controller": model.Presentation,
	"handler":    model.Presentation,
	"view":       model.Presentation,
	"views":      model.Presentation,
	"viewset":    model.Presentation,
	"routes":     model.Presentation,
	"router":     model.Presentation,
	"api":        model.Presentation,
	"resource":   model.Presentation,
	"endpoint":   model.Presentation,
	"servlet":    model.Presentation,

	"service":    model.Business,
	"usecase":    model.Business,
	"interactor": model.Business,
	"manager":    model.Business,
	"workflow":   model.Business,

	"repository": model.DataAccess,
	"repo":       model.DataAccess,
	"dao":        model.DataAccess,
	"store":      model.DataAccess,
	"storage":    model.DataAccess,
	"mapper":     model.DataAccess,
	"gateway":    model.DataAccess,
	"dal":        model.DataAccess,

	"model":       model.Domain,
	"models":      model.Domain,
	"entity":      model.Domain,
	"aggregate":   model.Domain,
	"valueobject": model.Domain,
}
