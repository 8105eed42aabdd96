package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
)

func TestModes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/modes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ModesResponse
	decode(t, w, &resp)
	require.Len(t, resp.Modes, 5)
	assert.Equal(t, "production", resp.Modes[0].ID)
	assert.Equal(t, "Testnet Only", resp.Modes[1].Name)
	assert.Equal(t, stack.KnownServices(), resp.Services)
}

func TestStackStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.lister.containers = []stack.Container{
		{Name: "afro-testnet-validator", Status: "Up 2 hours", Up: true},
		{Name: "afro_afro-web_1", Status: "Up 5 minutes", Up: true},
		{Name: "afro-validator", Status: "Exited (1) 3 minutes ago", Up: false},
	}

	w := ts.do(http.MethodGet, "/stack-status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status stack.StackStatus
	decode(t, w, &status)
	assert.Equal(t, stack.StackStatus{Testnet: true, Website: true, Connected: true}, status)
	assert.NotContains(t, w.Body.String(), "containers")

	w = ts.do(http.MethodGet, "/stack-status?detail=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report stack.StatusReport
	decode(t, w, &report)
	assert.True(t, report.Testnet)
	assert.Len(t, report.Containers, 3)
	assert.False(t, report.CheckedAt.IsZero())
}

func TestStackStatus_ListingFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.lister.err = errBoom

	w := ts.do(http.MethodGet, "/stack-status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status stack.StackStatus
	decode(t, w, &status)
	assert.Equal(t, stack.StackStatus{}, status)
}

func TestStackOperation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		result      executor.Result
		wantCode    int
		wantStage   stack.Stage
		wantSuccess bool
		wantCommand string
		wantMessage string
	}{
		{
			name:        "start a single service",
			body:        `{"operation":"start","mode":"testnet","services":["afro-testnet-validator"]}`,
			result:      executor.Succeeded("Starting afro-testnet-validator ... done\n"),
			wantCode:    http.StatusOK,
			wantStage:   stack.StageCompleted,
			wantSuccess: true,
			wantCommand: "docker-compose up -d afro-testnet-validator",
			wantMessage: "stack start completed for 1 service(s)",
		},
		{
			name:        "stop the whole deployment",
			body:        `{"operation":"stop","mode":"production","services":[]}`,
			result:      executor.Succeeded(""),
			wantCode:    http.StatusOK,
			wantStage:   stack.StageCompleted,
			wantSuccess: true,
			wantCommand: "docker-compose down",
			wantMessage: "stack stop completed for entire deployment",
		},
		{
			name:        "command failure is not a client error",
			body:        `{"operation":"restart","mode":"website","services":["afro-web"]}`,
			result:      executor.Failed(1, "no such service: afro-web"),
			wantCode:    http.StatusOK,
			wantStage:   stack.StageExecuting,
			wantCommand: "docker-compose restart afro-web",
			wantMessage: "command failed: no such service: afro-web",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.runner.RunFunc = func(context.Context, executor.Command) executor.Result { return tt.result }

			w := ts.do(http.MethodPost, "/stack-operation", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			var resp stack.OperationResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.wantStage, resp.Stage)
			assert.Equal(t, tt.wantCommand, resp.Command)
			assert.Equal(t, tt.wantMessage, resp.Message)

			calls := ts.runner.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, testWorkingDir, calls[0].Dir)
		})
	}
}

func TestStackOperation_ValidationNeverRuns(t *testing.T) {
	bodies := map[string]string{
		"unknown operation": `{"operation":"destroy","mode":"testnet"}`,
		"unknown mode":      `{"operation":"start","mode":"mainnet-only"}`,
		"unknown service":   `{"operation":"start","mode":"testnet","services":["afro-miner"]}`,
		"service outside":   `{"operation":"start","mode":"testnet","services":["afro-web"]}`,
		"missing mode":      `{"operation":"start"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)

			w := ts.do(http.MethodPost, "/api/ceo/stack-operation", body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp stack.OperationResponse
			decode(t, w, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, stack.StageValidating, resp.Stage)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, 0, ts.runner.Count())
		})
	}
}

func TestStackOperation_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/stack-operation", `{"operation":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	assert.Equal(t, 0, ts.runner.Count())
}

func TestGitOperation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/git-operation", `{"operation":"pull"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp stack.OperationResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "git pull origin main", resp.Command)

	calls := ts.runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, testWorkingDir, calls[0].Dir)

	// clone needs a repository url
	w = ts.do(http.MethodPost, "/git-operation", `{"operation":"clone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/git-operation", `{"operation":"rebase"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, ts.runner.Count())
}

func TestDockerExecute(t *testing.T) {
	t.Run("allowed command runs in the working dir", func(t *testing.T) {
		ts := newTestServer(t)
		ts.runner.RunFunc = func(context.Context, executor.Command) executor.Result {
			return executor.Succeeded("NAMES\tSTATUS\nafro-web\tUp 1 hour\n")
		}

		w := ts.do(http.MethodPost, "/docker-execute", `{"command":"docker ps --format \"{{.Names}}\""}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.DockerExecuteResponse
		decode(t, w, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "completed", resp.Stage)
		assert.Len(t, resp.Logs, 2)

		calls := ts.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "docker", calls[0].Name)
		assert.Equal(t, []string{"ps", "--format", "{{.Names}}"}, calls[0].Args)
		assert.Equal(t, testWorkingDir, calls[0].Dir)
		assert.Equal(t, executor.Default, calls[0].Class)
	})

	t.Run("builds use the long timeout class", func(t *testing.T) {
		ts := newTestServer(t)

		w := ts.do(http.MethodPost, "/docker-execute", `{"command":"docker-compose build afro-web"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 1, ts.runner.Count())
		assert.Equal(t, executor.Long, ts.runner.Calls()[0].Class)
	})

	t.Run("failure reports the executing stage", func(t *testing.T) {
		ts := newTestServer(t)
		ts.runner.RunFunc = func(context.Context, executor.Command) executor.Result {
			return executor.TimedOutResult()
		}

		w := ts.do(http.MethodPost, "/docker-execute", `{"command":"docker logs afro-web"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.DockerExecuteResponse
		decode(t, w, &resp)
		assert.False(t, resp.Success)
		assert.Equal(t, "executing", resp.Stage)
		assert.Equal(t, "timeout", resp.Error)
		assert.Nil(t, resp.ExitCode)
	})

	rejected := []string{
		"rm -rf /",
		"docker rm -f afro-validator",
		"docker psx",
		"docker ps; rm -rf /",
		"docker ps | sh",
		"docker logs $(whoami)",
		"git push origin main",
		`git pull "--upload-pack=touch /tmp/owned" origin`,
		"git log --output=/etc/cron.d/job",
		"docker-compose ps --file=/tmp/evil.yml",
		"docker ps\nrm -rf /",
	}
	for _, command := range rejected {
		t.Run("rejects "+command, func(t *testing.T) {
			ts := newTestServer(t)
			body := `{"command":` + quoteJSON(command) + `}`

			w := ts.do(http.MethodPost, "/docker-execute", body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp models.DockerExecuteResponse
			decode(t, w, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, "validating", resp.Stage)
			assert.Equal(t, "command not permitted", resp.Message)
			assert.Equal(t, 0, ts.runner.Count(), "no process may be spawned")
		})
	}
}

func quoteJSON(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func TestMutatingRoutesRequireOperator(t *testing.T) {
	ts := newTestServer(t, withAuth)

	for _, path := range []string{"/stack-operation", "/git-operation", "/docker-execute", "/api/ceo/docker-execute"} {
		w := ts.do(http.MethodPost, path, `{"command":"docker ps","operation":"pull"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	assert.Equal(t, 0, ts.runner.Count())

	// reads stay open
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/stack-status", "").Code)

	token, _, err := ts.tokens.Issue("ops-lagos")
	require.NoError(t, err)
	w := ts.do(http.MethodPost, "/docker-execute", `{"command":"docker ps"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.runner.Count())
}

func TestOperations(t *testing.T) {
	ts := newTestServer(t)
	code := 0
	ts.history.ops = []models.Operation{
		{ID: "op-2", Kind: models.OperationKindGit, Operation: "pull", Success: true, ExitCode: &code},
		{ID: "op-1", Kind: models.OperationKindStack, Operation: "start", Mode: "testnet"},
	}

	w := ts.do(http.MethodGet, "/operations", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.OperationListResponse
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "op-2", resp.Operations[0].ID)
	assert.Equal(t, defaultOperationLimit, ts.history.gotLimit)
	assert.Equal(t, models.OperationKind(""), ts.history.gotKind)

	w = ts.do(http.MethodGet, "/operations?kind=git&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OperationKindGit, ts.history.gotKind)
	assert.Equal(t, 5, ts.history.gotLimit)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/operations?limit=500", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/operations?kind=docker", "").Code)

	ts.history.err = errBoom
	assert.Equal(t, http.StatusInternalServerError, ts.do(http.MethodGet, "/operations", "").Code)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", DefaultStreamInterval, false},
		{"10s", 10 * time.Second, false},
		{"15", 15 * time.Second, false},
		{"500ms", MinStreamInterval, false},
		{"0", MinStreamInterval, false},
		{"5m", MaxStreamInterval, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseInterval(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// flushRecorder cancels the request once the first event is flushed
type flushRecorder struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (r *flushRecorder) Flush() {
	r.ResponseRecorder.Flush()
	r.cancel()
}

func TestStream(t *testing.T) {
	ts := newTestServer(t)
	ts.lister.containers = []stack.Container{{Name: "afro-ceo", Status: "Up 3 days", Up: true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/stack-status/stream?interval=2s", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}

	done := make(chan struct{})
	go func() {
		ts.server.Router().ServeHTTP(w, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var event, data string
	scanner := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	assert.Equal(t, "status", event)
	assert.JSONEq(t, `{"mainnet":false,"testnet":false,"explorer":false,"website":false,"ceo":true,"connected":true}`, data)
}

func TestStream_BadInterval(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/stack-status/stream?interval=soon", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
