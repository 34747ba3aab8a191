// Package server exposes open flow and journey documents over HTTP.
//
// Each document is held in a session. Intents for one document are applied
// one at a time, in the order they arrive, and a layout request holds the
// document for its whole read and apply pass.
package server

import (
	"sort"
	"sync"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/common-fate/flowbuilder/pkg/jsoncel"
	"github.com/gofiber/fiber/v3"
	"github.com/goccy/go-json"
)

type Config struct {
	// Store is used to save and load documents.
	// Saving and loading are unavailable if it is nil.
	Store flowstore.Store
	// Layout configures auto-layout requests which don't send their own config.
	Layout flowbuilder.LayoutConfig
	// GraphOptions are applied to every document the server opens.
	GraphOptions []flowbuilder.Option
	// ConditionSchema types the variables of condition expressions when linting.
	ConditionSchema *jsoncel.Schema
}

type Server struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*session
}

// session is an open document.
type session struct {
	mu sync.Mutex
	g  *flowbuilder.Graph
}

func New(cfg Config) *Server {
	if cfg.Layout == (flowbuilder.LayoutConfig{}) {
		cfg.Layout = flowbuilder.DefaultLayoutConfig()
	}
	return &Server{
		cfg:      cfg,
		sessions: map[string]*session{},
	}
}

// App builds the fiber app serving the API.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "flowbuilder",
		Immutable:   true,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	app.Use(func(c fiber.Ctx) error {
		err := c.Next()
		clio.Debugf("%s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	})

	app.Get("/flows", s.listFlows)
	app.Post("/flows", s.createFlow)
	app.Get("/flows/:name", s.getFlow)
	app.Delete("/flows/:name", s.closeFlow)

	app.Post("/flows/:name/nodes", s.addNode)
	app.Patch("/flows/:name/nodes/:id", s.updateNodeData)
	app.Put("/flows/:name/nodes/:id/position", s.moveNode)
	app.Put("/flows/:name/nodes/:id/hidden", s.setHidden)
	app.Post("/flows/:name/nodes/:id/duplicate", s.duplicateNode)
	app.Delete("/flows/:name/nodes/:id", s.removeNode)

	app.Post("/flows/:name/edges", s.addEdge)
	app.Patch("/flows/:name/edges/:id", s.updateEdge)
	app.Delete("/flows/:name/edges/:id", s.removeEdge)

	app.Post("/flows/:name/layout", s.layout)
	app.Get("/flows/:name/inspect", s.inspect)
	app.Get("/flows/:name/lint", s.lint)

	app.Get("/documents", s.listDocuments)
	app.Post("/flows/:name/save", s.save)
	app.Post("/flows/:name/load", s.load)

	return app
}

// Open adds a document to the server, replacing any open document with the same name.
func (s *Server) Open(g *flowbuilder.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[g.Name] = &session{g: g}
}

// open adds a document unless one with the same name is already open.
func (s *Server) open(g *flowbuilder.Graph) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[g.Name]; ok {
		return false
	}
	s.sessions[g.Name] = &session{g: g}
	return true
}

func (s *Server) close(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[name]; !ok {
		return false
	}
	delete(s.sessions, name)
	return true
}

func (s *Server) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sessions))
	for name := range s.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withGraph runs fn while holding the named document.
// It responds 404 if the document isn't open.
func (s *Server) withGraph(c fiber.Ctx, fn func(g *flowbuilder.Graph) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[c.Params("name")]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "flow not found"})
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.g)
}
