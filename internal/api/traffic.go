package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evnavlabs/evnav-simulator/internal/logging"
)

func (s *Server) trafficState() TrafficStateOut {
	blocked := s.traffic.BlockedConnections()
	refs := make([]ConnectionRef, 0, len(blocked))
	for _, b := range blocked {
		refs = append(refs, ConnectionRef{StartNodeID: b.From, EndNodeID: b.To})
	}
	return TrafficStateOut{Intensity: s.traffic.Intensity(), BlockedEdges: refs}
}

func (s *Server) handleTrafficState(c *gin.Context) {
	c.JSON(http.StatusOK, s.trafficState())
}

func (s *Server) handleSetIntensity(c *gin.Context) {
	var req TrafficIntensityIn
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	s.traffic.SetGlobalIntensity(req.Intensity)

	ctx := c.Request.Context()
	s.logger(ctx).Info(ctx, "traffic intensity updated",
		logging.Float64("intensity", s.traffic.Intensity()),
	)
	c.JSON(http.StatusOK, s.trafficState())
}

func (s *Server) handleBlockConnection(c *gin.Context) {
	var req ConnectionRef
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := s.checkConnectionRef(req); err != nil {
		writeError(c, err)
		return
	}

	s.traffic.BlockConnection(req.StartNodeID, req.EndNodeID)

	ctx := c.Request.Context()
	s.logger(ctx).Info(ctx, "connection blocked",
		logging.String("from", req.StartNodeID),
		logging.String("to", req.EndNodeID),
	)
	c.JSON(http.StatusOK, s.trafficState())
}

func (s *Server) handleUnblockConnection(c *gin.Context) {
	var req ConnectionRef
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := s.checkConnectionRef(req); err != nil {
		writeError(c, err)
		return
	}

	s.traffic.UnblockConnection(req.StartNodeID, req.EndNodeID)

	ctx := c.Request.Context()
	s.logger(ctx).Info(ctx, "connection unblocked",
		logging.String("from", req.StartNodeID),
		logging.String("to", req.EndNodeID),
	)
	c.JSON(http.StatusOK, s.trafficState())
}

// checkConnectionRef verifies both endpoints exist. Blocking a pair
// with no connecting road is allowed; it is simply inert.
func (s *Server) checkConnectionRef(ref ConnectionRef) error {
	if !s.network.HasLocation(ref.StartNodeID) {
		return unknownLocationError(ref.StartNodeID)
	}
	if !s.network.HasLocation(ref.EndNodeID) {
		return unknownLocationError(ref.EndNodeID)
	}
	return nil
}
