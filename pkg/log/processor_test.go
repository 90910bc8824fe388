package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/photosync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedComponent struct {
	Base   LoggerService `fabric:"inject"`
	Worker LoggerService `fabric:"logger:worker"`
	Plain  LoggerService `fabric:"logger"`
}

func TestLoggerTagProcessor_InjectsNamedLoggers(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerServiceWithWriter("photosync", config.LogConfig{Level: "INFO", NoColor: true, NoTerminal: true}, &buf)

	sc := container.NewServiceContainer()
	sc.AddTagProcessor(NewLoggerTagProcessor())

	require.NoError(t, container.Register[LoggerServiceImpl](sc,
		container.With[LoggerService](),
		container.WithInstance(base)))
	require.NoError(t, container.Register[*taggedComponent](sc))

	component, err := container.Resolve[*taggedComponent](context.Background(), sc)
	require.NoError(t, err)
	require.NotNil(t, component.Worker)

	component.Worker.Info("started")
	component.Plain.Info("plain")

	assert.Contains(t, buf.String(), "[photosync/worker] started")
	assert.Contains(t, buf.String(), "[photosync] plain")
}

func TestLoggerTagProcessor_CanProcess(t *testing.T) {
	p := NewLoggerTagProcessor()

	assert.True(t, p.CanProcess("logger"))
	assert.True(t, p.CanProcess("Logger:download"))
	assert.False(t, p.CanProcess("inject"))
	assert.False(t, p.CanProcess("loggers"))
}

func TestFromContainer_Unregistered(t *testing.T) {
	_, err := FromContainer(context.Background(), container.NewServiceContainer(), "remote")
	assert.Error(t, err)
}
