package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts a set of routes under the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type Router struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

type RouterOption func(*Router)

// WithAPIVersion changes the /api/<version> prefix, v1 by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

// WithMiddleware runs middleware on the versioned group only; health routes mounted
// on the bare engine skip it.
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.middleware = append(r.middleware, mw...) }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registered group. Call it once, after Register.
func (r *Router) Setup() {
	api := r.engine.Group("/api/"+r.version, r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one resource before they are mounted
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	mounts     []func(*gin.RouterGroup)
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Name() string { return g.name }

// Use adds middleware ahead of every route in the group
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, mw...)
	return g
}

func (g *DomainGroup) add(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	g.mounts = append(g.mounts, func(rg *gin.RouterGroup) { rg.Handle(method, path, handlers...) })
	return g
}

func (g *DomainGroup) GET(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodGet, path, h)
}

func (g *DomainGroup) POST(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPost, path, h)
}

func (g *DomainGroup) DELETE(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodDelete, path, h)
}

func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, mount := range g.mounts {
		mount(group)
	}
}
