package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "evnav"})
}

func (s *Server) handleCity(c *gin.Context) {
	c.JSON(http.StatusOK, cityOut(s.network))
}

func (s *Server) handleVehicles(c *gin.Context) {
	out := make([]VehicleOut, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, vehicleOut(v))
	}
	// Map order is random; keep the payload stable.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}
