// Package events connects the consistency manager and the schedule service to
// Kafka: booking events are consumed from the booking procedure's topic and a
// schedule.applied event is published after every apply.
package events
