package log

import (
	"context"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

const loggerTag = "logger"

// LoggerTagProcessor injects loggers into struct fields tagged with
// `fabric:"logger"` or `fabric:"logger:<name>"`. A name yields the registered
// LoggerService passed through Named.
type LoggerTagProcessor struct{}

func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority runs ahead of the default inject processor
func (p *LoggerTagProcessor) GetPriority() int {
	return 50
}

func (p *LoggerTagProcessor) CanProcess(value string) bool {
	value = strings.ToLower(value)
	return value == loggerTag || strings.HasPrefix(value, loggerTag+":")
}

func (p *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	_, name, _ := strings.Cut(value, ":")
	return FromContainer(ctx, sc, strings.TrimSpace(name))
}
