package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"trendflow/logger"
	"trendflow/models"
	"trendflow/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSink forwards progress events to a buffered channel. Events published
// faster than the socket can drain are dropped.
type wsSink struct {
	events chan pipeline.Event
	once   sync.Once
}

func newWSSink() *wsSink {
	return &wsSink{events: make(chan pipeline.Event, 32)}
}

func (s *wsSink) Publish(e pipeline.Event) {
	select {
	case s.events <- e:
	default:
	}
}

func (s *wsSink) close() {
	s.once.Do(func() { close(s.events) })
}

type wsMessage struct {
	Type   string                 `json:"type"`
	Event  *pipeline.Event        `json:"event,omitempty"`
	Report *models.AnalysisReport `json:"report,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// handleAnalyzeWS upgrades the connection, reads one analysis request and
// streams progress events followed by the final report.
func (s *Server) handleAnalyzeWS(c *gin.Context) {
	log := s.log.WithComponent("server").WithFields(logger.Fields{
		"operation": "analyze_ws",
	})

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req analyzeProductRequest
	if err := conn.ReadJSON(&req); err != nil || req.SearchTerm == "" {
		conn.WriteJSON(wsMessage{Type: "error", Error: "searchTerm is required"})
		return
	}

	sink := newWSSink()

	type result struct {
		report *models.AnalysisReport
		err    error
	}
	done := make(chan result, 1)

	go func() {
		report, err := s.analyzer.AnalyzeDescription(c.Request.Context(), &models.ProductDescription{
			SearchTerm:       req.SearchTerm,
			SocialSearchTerm: req.SocialSearchTerm,
			Microniche:       req.Microniche,
		}, sink)
		sink.close()
		done <- result{report: report, err: err}
	}()

	for event := range sink.events {
		e := event
		if err := conn.WriteJSON(wsMessage{Type: "progress", Event: &e}); err != nil {
			log.WithError(err).Warn("websocket write failed")
			break
		}
	}

	res := <-done
	if res.err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: res.err.Error()})
		return
	}

	s.archive(*res.report)
	if err := conn.WriteJSON(wsMessage{Type: "report", Report: res.report}); err != nil {
		log.WithError(err).Warn("failed to deliver report over websocket")
	}
}
