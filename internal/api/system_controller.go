package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/compose"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// SystemController reports on the compose project and the Docker daemon
type SystemController struct {
	compose ComposeInspector
	docker  DockerBackend
	logger  *logrus.Logger
}

// NewSystemController creates a new system controller
func NewSystemController(inspector ComposeInspector, dockerBackend DockerBackend, logger *logrus.Logger) *SystemController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SystemController{compose: inspector, docker: dockerBackend, logger: logger}
}

// RegisterRoutes registers the system routes
func (ctrl *SystemController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/compose/services", ctrl.ComposeServices)
	router.GET("/system/docker", ctrl.DockerSystem)
}

// ComposeServices godoc
// @Summary Describe compose services
// @Description Parses the compose file and cross-checks its services against the operation modes.
// @Tags System
// @Produce json
// @Success 200 {object} models.ComposeServicesResponse
// @Failure 404 {object} utils.Response "Compose file not found"
// @Failure 500 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /compose/services [get]
func (ctrl *SystemController) ComposeServices(c *gin.Context) {
	if ctrl.compose == nil {
		utils.ServiceUnavailable(c, "Compose inspection is not available")
		return
	}

	resp, err := ctrl.compose.Services(c.Request.Context())
	if err != nil {
		if errors.Is(err, compose.ErrComposeFileNotFound) {
			utils.NotFound(c, err.Error())
			return
		}
		ctrl.logger.WithError(err).Error("Failed to load compose file")
		utils.ErrorResponse(c, http.StatusInternalServerError, "COMPOSE_INVALID", "Failed to load compose file", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DockerSystem godoc
// @Summary Docker daemon status
// @Description Pings the Docker daemon and summarizes its container counts.
// @Tags System
// @Produce json
// @Success 200 {object} models.DockerSystemResponse
// @Failure 503 {object} utils.Response
// @Router /system/docker [get]
func (ctrl *SystemController) DockerSystem(c *gin.Context) {
	if ctrl.docker == nil {
		utils.ServiceUnavailable(c, "Docker API is not available")
		return
	}
	c.JSON(http.StatusOK, ctrl.docker.System(c.Request.Context()))
}
