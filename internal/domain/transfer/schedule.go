package transfer

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleState defines the deferred operation lifecycle
type ScheduleState string

const (
	ScheduleWaiting  ScheduleState = "WAIT"
	ScheduleFinished ScheduleState = "FINI"
	ScheduleError    ScheduleState = "ERRO"
)

// Schedule is a deferred ledger operation attached to an approved transfer.
// The worker claims due WAITING schedules, executes the operation and marks
// the schedule and its transfer FINISHED.
type Schedule struct {
	ID           uuid.UUID     `json:"id"`
	TransferID   uuid.UUID     `json:"transfer_id"`
	State        ScheduleState `json:"state"`
	DueAt        time.Time     `json:"due_at"`
	Trial        int           `json:"trial"`
	MaxTrials    int           `json:"max_trials"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ProcessorID  *uuid.UUID    `json:"processor_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// NewSchedule creates a WAITING schedule due at the given time
func NewSchedule(transferID uuid.UUID, dueAt time.Time, maxTrials int) *Schedule {
	return &Schedule{
		ID:         uuid.New(),
		TransferID: transferID,
		State:      ScheduleWaiting,
		DueAt:      dueAt,
		MaxTrials:  maxTrials,
		CreatedAt:  time.Now(),
	}
}

// Due reports whether the schedule should be executed at the given instant
func (s *Schedule) Due(now time.Time) bool {
	return s.State == ScheduleWaiting && !s.DueAt.After(now)
}

// Finish marks the schedule executed by the given processor
func (s *Schedule) Finish(processorID uuid.UUID, at time.Time) {
	s.State = ScheduleFinished
	s.Trial++
	s.ProcessorID = &processorID
	s.FinishedAt = &at
}

// Fail records a failed attempt. The schedule stays WAITING until MaxTrials
// attempts have been spent, then moves to ERROR.
func (s *Schedule) Fail(message string) {
	s.Trial++
	s.ErrorMessage = message
	if s.Trial >= s.MaxTrials {
		s.State = ScheduleError
	}
}
