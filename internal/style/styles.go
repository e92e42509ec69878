package style

import (
	"fmt"

	"github.com/phobologic/archlens/internal/model"
)

const (
	rolePresentation = string(model.Presentation)
	roleBusiness     = string(model.Business)
	roleDataAccess   = string(model.DataAccess)
	roleDomain       = string(model.Domain)
)

var layeredAllowed = transitions(
	[2]string{rolePresentation, roleBusiness},
	[2]string{rolePresentation, roleDomain},
	[2]string{roleBusiness, roleDataAccess},
	[2]string{roleBusiness, roleDomain},
	[2]string{roleDataAccess, roleDomain},
)

// layered expects presentation -> business -> data access, with the domain
// model usable from every layer. Skipping a layer is a violation.
var layered = &taxonomy{
	name:  "layered",
	roles: []string{rolePresentation, roleBusiness, roleDataAccess, roleDomain},
	levels: []classifier{
		func(c *model.Component) []string {
			if c.Layer == model.Unknown || c.Layer == "" {
				return nil
			}
			return []string{string(c.Layer)}
		},
	},
	allowed: layeredAllowed,
	signature: func(v *view) float64 {
		distinct := 0
		for _, r := range []string{rolePresentation, roleBusiness, roleDataAccess} {
			if v.has(r) {
				distinct++
			}
		}
		crossing := false
		for _, e := range v.edges {
			if e[0] != e[1] && layeredAllowed(e[0], e[1]) {
				crossing = true
				break
			}
		}
		s := min(1, float64(distinct)/3)
		if !crossing {
			s *= 0.5
		}
		return s
	},
	signatureAdvice: "separate presentation, business and data access code and let each layer call only the one below it",
	advice: map[[2]string]string{
		{roleDataAccess, rolePresentation}: "data access reaches up into presentation; return data to the business layer instead",
		{roleDataAccess, roleBusiness}:     "data access calls business logic; move the rule into a service that uses the repository",
		{roleBusiness, rolePresentation}:   "business logic depends on presentation; pass what it needs in as plain values",
		{rolePresentation, roleDataAccess}: "presentation skips the business layer; route data access through a service",
		{roleDomain, rolePresentation}:     "the domain model depends on presentation; keep entities free of delivery concerns",
		{roleDomain, roleBusiness}:         "the domain model depends on services; keep entities free of orchestration",
		{roleDomain, roleDataAccess}:       "the domain model depends on persistence; map entities in the repository instead",
	},
}

const (
	roleCore    = "domain_core"
	rolePort    = "port"
	roleAdapter = "adapter"
)

// hexagonal keeps the core free of adapters; adapters reach the core through ports.
var hexagonal = &taxonomy{
	name:  "hexagonal",
	roles: []string{roleCore, rolePort, roleAdapter},
	levels: []classifier{
		dirRoles(map[string]string{
			"core": roleCore, "domain": roleCore, "entities": roleCore, "model": roleCore, "models": roleCore,
			"application": roleCore,
			"port": rolePort, "ports": rolePort, "interfaces": rolePort,
			"adapter": roleAdapter, "adapters": roleAdapter, "infrastructure": roleAdapter, "infra": roleAdapter,
			"driven": roleAdapter, "driving": roleAdapter, "primary": roleAdapter, "secondary": roleAdapter,
		}),
		nameRoles(map[string]string{
			"port": rolePort, "useport": rolePort, "inport": rolePort, "outport": rolePort,
			"adapter": roleAdapter, "gateway": roleAdapter, "client": roleAdapter, "controller": roleAdapter,
			"entity": roleCore, "aggregate": roleCore, "valueobject": roleCore,
		}),
		layerRoles(map[model.Layer]string{
			model.Domain:       roleCore,
			model.Business:     roleCore,
			model.Presentation: roleAdapter,
			model.DataAccess:   roleAdapter,
		}),
	},
	allowed: transitions(
		[2]string{roleAdapter, rolePort},
		[2]string{roleAdapter, roleCore},
		[2]string{rolePort, roleCore},
		[2]string{roleCore, rolePort},
	),
	signature: func(v *view) float64 {
		return presence(v.hasEdge(roleAdapter, rolePort), v.has(roleAdapter, rolePort))
	},
	signatureAdvice: "declare ports as interfaces owned by the core and have adapters implement them",
	advice: map[[2]string]string{
		{roleCore, roleAdapter}: "the core depends on an adapter; depend on a port the adapter implements",
		{rolePort, roleAdapter}: "a port depends on an adapter; ports must only reference core types",
	},
}

const (
	roleEntities   = "entities"
	roleUseCases   = "use_cases"
	roleAdapters   = "interface_adapters"
	roleFrameworks = "frameworks"
)

// cleanRank orders the clean-architecture rings from the inside out.
var cleanRank = map[string]int{roleEntities: 0, roleUseCases: 1, roleAdapters: 2, roleFrameworks: 3}

// clean lets dependencies point inward only.
var clean = &taxonomy{
	name:  "clean",
	roles: []string{roleEntities, roleUseCases, roleAdapters, roleFrameworks},
	levels: []classifier{
		dirRoles(map[string]string{
			"entities": roleEntities, "entity": roleEntities, "domain": roleEntities, "models": roleEntities,
			"model": roleEntities, "enterprise": roleEntities,
			"usecases": roleUseCases, "usecase": roleUseCases, "use_cases": roleUseCases,
			"interactors": roleUseCases, "application": roleUseCases,
			"adapters": roleAdapters, "interface_adapters": roleAdapters, "controllers": roleAdapters,
			"presenters": roleAdapters, "gateways": roleAdapters, "repositories": roleAdapters,
			"frameworks": roleFrameworks, "drivers": roleFrameworks, "infrastructure": roleFrameworks,
			"external": roleFrameworks, "db": roleFrameworks, "web": roleFrameworks,
		}),
		nameRoles(map[string]string{
			"entity": roleEntities, "model": roleEntities, "aggregate": roleEntities, "valueobject": roleEntities,
			"usecase": roleUseCases, "interactor": roleUseCases, "service": roleUseCases,
			"controller": roleAdapters, "presenter": roleAdapters, "gateway": roleAdapters,
			"adapter": roleAdapters, "repository": roleAdapters,
			"driver": roleFrameworks, "framework": roleFrameworks, "client": roleFrameworks,
		}),
		layerRoles(map[model.Layer]string{
			model.Domain:       roleEntities,
			model.Business:     roleUseCases,
			model.Presentation: roleAdapters,
			model.DataAccess:   roleAdapters,
		}),
	},
	allowed: func(from, to string) bool {
		return cleanRank[from] >= cleanRank[to]
	},
	signature: func(v *view) float64 {
		return presence(v.hasEdge(roleUseCases, roleEntities), v.has(roleUseCases, roleEntities))
	},
	signatureAdvice: "give use cases their own package that depends only on entities",
	advice: map[[2]string]string{
		{roleEntities, roleUseCases}: "an entity depends on a use case; entities must not know about application logic",
		{roleUseCases, roleAdapters}: "a use case depends on an interface adapter; declare an output port in the use case ring",
	},
}

const (
	roleEvent    = "event"
	roleProducer = "producer"
	roleConsumer = "consumer"
	roleBroker   = "broker"
)

// eventDriven routes producers and consumers through events and brokers only.
var eventDriven = &taxonomy{
	name:  "event_driven",
	roles: []string{roleEvent, roleProducer, roleConsumer, roleBroker},
	levels: []classifier{
		dirRoles(map[string]string{
			"events": roleEvent, "event": roleEvent, "messages": roleEvent,
			"producers": roleProducer, "producer": roleProducer, "publishers": roleProducer, "publisher": roleProducer,
			"consumers": roleConsumer, "consumer": roleConsumer, "subscribers": roleConsumer,
			"listeners": roleConsumer, "handlers": roleConsumer, "subscriptions": roleConsumer,
			"broker": roleBroker, "bus": roleBroker, "eventbus": roleBroker, "messaging": roleBroker, "queue": roleBroker,
		}),
		patternRoles(map[string]string{
			"event_publisher": roleProducer,
			"event_handler":   roleConsumer,
			"observer":        roleBroker,
		}),
		nameRoles(map[string]string{
			"event": roleEvent, "message": roleEvent,
			"publisher": roleProducer, "producer": roleProducer, "emitter": roleProducer, "dispatcher": roleProducer,
			"handler": roleConsumer, "listener": roleConsumer, "subscriber": roleConsumer, "consumer": roleConsumer,
			"bus": roleBroker, "broker": roleBroker, "queue": roleBroker, "eventbus": roleBroker,
		}),
	},
	allowed: transitions(
		[2]string{roleProducer, roleEvent},
		[2]string{roleProducer, roleBroker},
		[2]string{roleConsumer, roleEvent},
		[2]string{roleConsumer, roleBroker},
		[2]string{roleBroker, roleEvent},
		[2]string{roleBroker, roleConsumer},
	),
	signature: func(v *view) float64 {
		switch {
		case v.has(roleProducer, roleConsumer, roleEvent):
			return 1
		case v.has(roleProducer, roleConsumer):
			return 0.66
		case v.has(roleProducer) || v.has(roleConsumer):
			return 0.33
		default:
			return 0
		}
	},
	signatureAdvice: "model events as their own types shared by producers and consumers",
	advice: map[[2]string]string{
		{roleProducer, roleConsumer}: "a producer calls a consumer directly; publish an event through the broker instead",
		{roleConsumer, roleProducer}: "a consumer calls a producer directly; react to events instead of invoking senders",
		{roleEvent, roleProducer}:    "an event type depends on a producer; events must be plain data",
		{roleEvent, roleConsumer}:    "an event type depends on a consumer; events must be plain data",
	},
}

const (
	roleAPI     = "api"
	roleService = "service"
	roleData    = "data"
	roleShared  = "shared"
)

// microservices keeps each service's internals private; only shared code
// may be used across service boundaries.
var microservices = &taxonomy{
	name:  "microservices",
	roles: []string{roleAPI, roleService, roleData, roleShared},
	levels: []classifier{
		dirRoles(map[string]string{
			"api": roleAPI, "apis": roleAPI, "gateway": roleAPI, "handlers": roleAPI, "controllers": roleAPI,
			"routes": roleAPI, "http": roleAPI, "grpc": roleAPI, "rest": roleAPI,
			"service": roleService, "core": roleService, "domain": roleService, "logic": roleService,
			"usecases": roleService, "app": roleService,
			"data": roleData, "db": roleData, "repository": roleData, "repositories": roleData, "store": roleData,
			"storage": roleData, "persistence": roleData, "models": roleData, "migrations": roleData,
			"shared": roleShared, "common": roleShared, "lib": roleShared, "libs": roleShared, "pkg": roleShared,
			"utils": roleShared, "util": roleShared, "contracts": roleShared, "proto": roleShared,
		}),
		layerRoles(map[model.Layer]string{
			model.Presentation: roleAPI,
			model.Business:     roleService,
			model.Domain:       roleService,
			model.DataAccess:   roleData,
		}),
	},
	allowed: func(from, to string) bool {
		if from == to || to == roleShared {
			return true
		}
		switch [2]string{from, to} {
		case [2]string{roleAPI, roleService}, [2]string{roleAPI, roleData}, [2]string{roleService, roleData}:
			return true
		}
		return false
	},
	boundary: func(from, to *model.Component, toRole string) string {
		if toRole == roleShared || from.Domain == "" || to.Domain == "" || from.Domain == to.Domain {
			return ""
		}
		return fmt.Sprintf("crosses service boundary %s -> %s", from.Domain, to.Domain)
	},
	signature: func(v *view) float64 {
		domains := make(map[string]struct{})
		for i, c := range v.comps {
			if v.roles[i] != "" && v.roles[i] != roleShared && c.Domain != "" {
				domains[c.Domain] = struct{}{}
			}
		}
		return max(0, min(1, float64(len(domains)-1)/2))
	},
	signatureAdvice: "split the code into independently deployable services, one directory per service",
	advice: map[[2]string]string{
		{roleData, roleService}: "the data layer calls service logic; keep persistence free of business rules",
		{roleData, roleAPI}:     "the data layer calls the api; return results instead",
		{roleService, roleAPI}:  "service logic depends on the api layer; pass request data in as values",
	},
}
