package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/docker"
	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// Log tail bounds
const (
	DefaultLogTail = 100
	MaxLogTail     = 1000
)

const wsWriteWait = 10 * time.Second

// WebsocketUpgrader defines the websocket upgrader settings
var WebsocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serviceURI binds the :service path parameter
type serviceURI struct {
	Service string `uri:"service" binding:"required,serviceid"`
}

// LogsController serves container logs
type LogsController struct {
	runner     executor.Runner
	docker     DockerBackend
	workingDir string
	logger     *logrus.Logger
}

// NewLogsController creates a new logs controller
func NewLogsController(runner executor.Runner, dockerBackend DockerBackend, workingDir string, logger *logrus.Logger) *LogsController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogsController{
		runner:     runner,
		docker:     dockerBackend,
		workingDir: workingDir,
		logger:     logger,
	}
}

// RegisterRoutes registers the log routes
func (ctrl *LogsController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/logs/:service", ctrl.Logs)
	router.GET("/logs/:service/follow", ctrl.Follow)
}

// Logs godoc
// @Summary Get service logs
// @Description Returns the last lines of a service container's output.
// @Description A failing docker command is reported with success false.
// @Tags Logs
// @Produce json
// @Param service path string true "Service ID" example(afro-testnet-validator)
// @Param tail query int false "Number of lines (1-1000)" default(100)
// @Success 200 {object} models.ServiceLogsResponse
// @Failure 400 {object} utils.Response
// @Router /logs/{service} [get]
func (ctrl *LogsController) Logs(c *gin.Context) {
	service, ok := bindService(c)
	if !ok {
		return
	}
	var req models.LogsRequest
	if !utils.BindQuery(c, &req) {
		return
	}
	tail := clampTail(req.Tail)
	container := stack.ContainerName(service)

	result := ctrl.runner.Run(c.Request.Context(), executor.Command{
		Name:  "docker",
		Args:  []string{"logs", container, "--tail", strconv.Itoa(tail)},
		Dir:   ctrl.workingDir,
		Class: executor.Default,
	})

	resp := models.ServiceLogsResponse{
		Service:   service,
		Container: container,
		Tail:      tail,
		Success:   result.Success,
		Logs:      result.Lines(),
	}
	if !result.Success {
		resp.Error = result.Error
		ctrl.logger.WithFields(logrus.Fields{
			"service": service,
			"error":   result.Error,
		}).Warn("Failed to read service logs")
	}
	c.JSON(http.StatusOK, resp)
}

// Follow godoc
// @Summary Follow service logs
// @Description Upgrades to a WebSocket and streams log lines as {"stream","line"} JSON messages
// @Description until either side closes.
// @Tags Logs
// @Param service path string true "Service ID"
// @Param tail query int false "Lines of history to send first (1-1000)" default(100)
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /logs/{service}/follow [get]
func (ctrl *LogsController) Follow(c *gin.Context) {
	service, ok := bindService(c)
	if !ok {
		return
	}
	var req models.LogsRequest
	if !utils.BindQuery(c, &req) {
		return
	}
	if ctrl.docker == nil {
		utils.ServiceUnavailable(c, "Docker API is not available")
		return
	}

	container := stack.ContainerName(service)
	logger := ctrl.logger.WithFields(logrus.Fields{
		"service":    service,
		"container":  container,
		"request_id": c.GetString("request_id"),
	})

	ws, err := WebsocketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade to websocket connection")
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client only ever closes, so reading just watches for that
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.WithError(err).Debug("Log follower disconnected")
				}
				return
			}
		}
	}()

	logger.Info("Following service logs")
	err = ctrl.docker.FollowLogs(ctx, container, clampTail(req.Tail), func(line docker.LogLine) error {
		_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return ws.WriteJSON(line)
	})

	closeCode, reason := websocket.CloseNormalClosure, "log stream ended"
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("Log stream failed")
		closeCode, reason = websocket.CloseInternalServerErr, err.Error()
	}
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, reason), time.Now().Add(wsWriteWait))
}

// bindService validates the :service path parameter and returns its canonical ID
func bindService(c *gin.Context) (stack.ServiceID, bool) {
	var uri serviceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		utils.BadRequest(c, "unknown service: "+c.Param("service"))
		return "", false
	}
	service, _ := stack.NormalizeService(uri.Service)
	return service, true
}

func clampTail(tail int) int {
	switch {
	case tail == 0:
		return DefaultLogTail
	case tail < 1:
		return 1
	case tail > MaxLogTail:
		return MaxLogTail
	}
	return tail
}
