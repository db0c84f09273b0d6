package router

import "github.com/gin-gonic/gin"

// Module is a feature slice (user, course, payment, misc) that knows how to
// mount its own routes.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects feature modules and mounts them under the shared /api
// prefix in one pass at startup.
type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
