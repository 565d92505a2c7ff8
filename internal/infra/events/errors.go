package events

import "errors"

var (
	ErrConnect = errors.New("events: failed to connect to broker")
	ErrPublish = errors.New("events: failed to publish")
)
