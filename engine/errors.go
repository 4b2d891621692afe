package engine

import (
	"errors"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/continuity"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

var (
	ErrContainerNotFound     = errors.New("engine: container not found")
	ErrFactoryRequired       = errors.New("engine: block factory required")
	ErrEngineDestroyed       = errors.New("engine: destroyed")
	ErrDirectionChangeFailed = errors.New("engine: direction change failed")
)

// errorTag collapses an error into the short code carried on error events.
func errorTag(err error) string {
	switch {
	case errors.Is(err, direction.ErrInvalidDirection):
		return "invalidDirection"
	case errors.Is(err, config.ErrInvalidData):
		return "invalidData"
	case errors.Is(err, continuity.ErrSyncFailed):
		return "animationSyncFailed"
	case errors.Is(err, ErrDirectionChangeFailed):
		return "directionChangeFailed"
	case errors.Is(err, position.ErrValidation):
		return "positionValidationFailed"
	case errors.Is(err, transform.ErrUnsupportedDirection),
		errors.Is(err, transform.ErrNilNode),
		errors.Is(err, transform.ErrUnparsableTransform):
		return "transformApplicationFailed"
	case errors.Is(err, ErrContainerNotFound):
		return "containerNotFound"
	case errors.Is(err, ErrEngineDestroyed):
		return "engineDestroyed"
	default:
		return "internal"
	}
}
