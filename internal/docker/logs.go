package docker

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLine is one line of container output
type LogLine struct {
	Stream string `json:"stream"`
	Line   string `json:"line"`
}

// FollowLogs streams a container's output line by line until ctx is done,
// the stream ends or emit returns an error.
func (m *Manager) FollowLogs(ctx context.Context, containerName string, tail int, emit func(LogLine) error) error {
	api, err := m.API()
	if err != nil {
		return err
	}

	info, err := api.ContainerInspect(ctx, containerName)
	if err != nil {
		return errors.Wrapf(err, "failed to inspect container %s", containerName)
	}
	tty := info.Config != nil && info.Config.Tty

	rc, err := api.ContainerLogs(ctx, containerName, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to open logs for %s", containerName)
	}
	defer rc.Close()

	stop := context.AfterFunc(ctx, func() { rc.Close() })
	defer stop()

	logger := m.logger.WithFields(logrus.Fields{"container": containerName, "tty": tty})
	logger.Debug("Following container logs")

	if tty {
		err = scanLines(rc, "stdout", emit)
	} else {
		err = demux(rc, emit)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// demux splits a multiplexed log stream into stdout and stderr lines
func demux(rc io.Reader, emit func(LogLine) error) error {
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	go func() {
		_, err := stdcopy.StdCopy(stdoutW, stderrW, rc)
		stdoutW.CloseWithError(err)
		stderrW.CloseWithError(err)
	}()

	lines := make(chan LogLine)
	done := make(chan error, 2)
	forward := func(r *io.PipeReader, stream string) {
		done <- scanLines(r, stream, func(l LogLine) error {
			lines <- l
			return nil
		})
	}
	go forward(stdoutR, "stdout")
	go forward(stderrR, "stderr")

	var firstErr error
	open := 2
	for open > 0 {
		select {
		case l := <-lines:
			if firstErr != nil {
				continue
			}
			if err := emit(l); err != nil {
				firstErr = err
				stdoutR.CloseWithError(err)
				stderrR.CloseWithError(err)
			}
		case err := <-done:
			open--
			if firstErr == nil && err != nil && !errors.Is(err, io.ErrClosedPipe) {
				firstErr = err
			}
		}
	}
	return firstErr
}

func scanLines(r io.Reader, stream string, emit func(LogLine) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if err := emit(LogLine{Stream: stream, Line: line}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
