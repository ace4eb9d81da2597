// Package di provides dependency injection wiring for the frontends.
package di

import (
	"github.com/manuelmanso/etfoptimizer/internal/artifacts"
	"github.com/manuelmanso/etfoptimizer/internal/clients/optimizer"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/session"
)

// Container holds every dependency of a frontend process.
// Created by Wire; the session is not initialized yet.
type Container struct {
	Client       *optimizer.Client
	Exporter     *artifacts.Exporter
	Preset       *configuration.Preset // nil when no preset is configured
	EventManager *events.Manager
	Session      *session.Session
}
