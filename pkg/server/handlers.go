package server

import (
	"github.com/common-fate/clio"
	"github.com/common-fate/flowbuilder"
	"github.com/common-fate/flowbuilder/pkg/dialect"
	"github.com/common-fate/flowbuilder/pkg/edge"
	"github.com/common-fate/flowbuilder/pkg/flowstore"
	"github.com/common-fate/flowbuilder/pkg/node"
	"github.com/gofiber/fiber/v3"
	"github.com/pkg/errors"
)

type createFlowRequest struct {
	Name    string `json:"name"`
	Builder string `json:"builder"`
}

type addNodeRequest struct {
	Type     node.Type      `json:"type"`
	Position node.Position  `json:"position"`
	Data     map[string]any `json:"data"`
}

type hiddenRequest struct {
	Hidden bool `json:"hidden"`
}

func invalidBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}

func nodeNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node not found"})
}

func edgeNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "edge not found"})
}

func (s *Server) listFlows(c fiber.Ctx) error {
	return c.JSON(s.names())
}

func (s *Server) createFlow(c fiber.Ctx) error {
	var req createFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	d, err := dialect.Lookup(req.Builder)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	g := flowbuilder.New(req.Name, d, s.cfg.GraphOptions...)
	if !s.open(g) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "flow is already open"})
	}
	clio.Debugf("opened %s document %s", d.Name, req.Name)
	return c.Status(fiber.StatusCreated).JSON(flowbuilder.Serialize(g))
}

func (s *Server) getFlow(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		return c.JSON(flowbuilder.Serialize(g))
	})
}

func (s *Server) closeFlow(c fiber.Ctx) error {
	if !s.close(c.Params("name")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "flow not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) addNode(c fiber.Ctx) error {
	var req addNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type is required"})
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		nd := g.AddNode(req.Type, req.Position, req.Data)
		return c.Status(fiber.StatusCreated).JSON(flowbuilder.SnapshotNode(nd))
	})
}

func (s *Server) updateNodeData(c fiber.Ctx) error {
	var partial map[string]any
	if err := c.Bind().JSON(&partial); err != nil {
		return invalidBody(c)
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		id := c.Params("id")
		if _, ok := g.Node(id); !ok {
			return nodeNotFound(c)
		}
		if err := g.UpdateNodeData(id, partial); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		nd, _ := g.Node(id)
		return c.JSON(flowbuilder.SnapshotNode(nd))
	})
}

func (s *Server) moveNode(c fiber.Ctx) error {
	var pos node.Position
	if err := c.Bind().JSON(&pos); err != nil {
		return invalidBody(c)
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		id := c.Params("id")
		if _, ok := g.Node(id); !ok {
			return nodeNotFound(c)
		}
		g.MoveNode(id, pos)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (s *Server) setHidden(c fiber.Ctx) error {
	var req hiddenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidBody(c)
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		id := c.Params("id")
		if _, ok := g.Node(id); !ok {
			return nodeNotFound(c)
		}
		g.SetHidden(id, req.Hidden)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (s *Server) duplicateNode(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		nd, ok := g.DuplicateNode(c.Params("id"))
		if !ok {
			return nodeNotFound(c)
		}
		return c.Status(fiber.StatusCreated).JSON(flowbuilder.SnapshotNode(nd))
	})
}

func (s *Server) removeNode(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		if !g.RemoveNode(c.Params("id")) {
			return nodeNotFound(c)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (s *Server) addEdge(c fiber.Ctx) error {
	var conn edge.Connection
	if err := c.Bind().JSON(&conn); err != nil {
		return invalidBody(c)
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		e, err := g.AddEdge(conn)
		if reason, ok := flowbuilder.RejectionReason(err); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "reason": reason})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(flowbuilder.SnapshotEdge(e))
	})
}

func (s *Server) updateEdge(c fiber.Ctx) error {
	var patch edge.Patch
	if err := c.Bind().JSON(&patch); err != nil {
		return invalidBody(c)
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		e, ok := g.UpdateEdge(c.Params("id"), patch)
		if !ok {
			return edgeNotFound(c)
		}
		return c.JSON(flowbuilder.SnapshotEdge(e))
	})
}

func (s *Server) removeEdge(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		if !g.RemoveEdge(c.Params("id")) {
			return edgeNotFound(c)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// layout runs auto-layout. The request body may carry a layout config;
// the server's config is used otherwise.
func (s *Server) layout(c fiber.Ctx) error {
	cfg := s.cfg.Layout
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&cfg); err != nil {
			return invalidBody(c)
		}
	}

	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		return c.JSON(flowbuilder.RunAutoLayout(g, cfg))
	})
}

func (s *Server) inspect(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		report, err := flowbuilder.Inspect(g)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report)
	})
}

func (s *Server) lint(c fiber.Ctx) error {
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		issues, err := flowbuilder.Lint(g, flowbuilder.WithConditionSchema(s.cfg.ConditionSchema))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if issues == nil {
			issues = []flowbuilder.Issue{}
		}
		return c.JSON(issues)
	})
}

func (s *Server) storeUnavailable(c fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "no document store is configured"})
}

func (s *Server) listDocuments(c fiber.Ctx) error {
	if s.cfg.Store == nil {
		return s.storeUnavailable(c)
	}
	names, err := s.cfg.Store.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(names)
}

func (s *Server) save(c fiber.Ctx) error {
	if s.cfg.Store == nil {
		return s.storeUnavailable(c)
	}
	return s.withGraph(c, func(g *flowbuilder.Graph) error {
		if err := s.cfg.Store.Save(c.Context(), flowbuilder.Serialize(g)); err != nil {
			clio.Errorf("saving %s: %s", g.Name, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// load opens a stored document, replacing the open copy if there is one.
func (s *Server) load(c fiber.Ctx) error {
	if s.cfg.Store == nil {
		return s.storeUnavailable(c)
	}
	name := c.Params("name")

	snap, err := s.cfg.Store.Get(c.Context(), name)
	if errors.Is(err, flowstore.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	g, err := flowbuilder.Deserialize(*snap, s.cfg.GraphOptions...)
	if err != nil {
		// a stored document that fails to load is corrupt.
		clio.Errorf("loading %s: %s", name, err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	s.Open(g)
	return c.JSON(flowbuilder.Serialize(g))
}
