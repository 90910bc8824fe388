package log

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mwantia/fabric/pkg/container"
)

// FromContainer resolves the registered LoggerService from the container and,
// if name is set, returns a logger named after the requesting component.
func FromContainer(ctx context.Context, sc *container.ServiceContainer, name string) (LoggerService, error) {
	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve LoggerService for '%s': no logger service registered", name)
	}

	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved logger is not a LoggerService for '%s'", name)
	}

	if name != "" {
		return base.Named(name), nil
	}
	return base, nil
}
