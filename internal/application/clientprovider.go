package application

import "github.com/ericfisherdev/envpush/internal/domain/port/driven"

// ClientFactory builds an EnvironmentAPI bound to token. A fresh client is
// built for every run because each run brings its own credential; nothing is
// kept once the run ends.
type ClientFactory func(token string) (driven.EnvironmentAPI, error)
