package session

import (
	"errors"
	"time"

	"github.com/smileynet/zoodesk/internal/resource"
)

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient message shown after a load or mutation.
type Notice struct {
	Level    Level
	Title    string
	Detail   string
	Duration time.Duration
}

// NoticeDurations sets how long notices stay visible.
type NoticeDurations struct {
	Success time.Duration
	Error   time.Duration
}

// DefaultNoticeDurations returns 3s for success and 5s for errors.
func DefaultNoticeDurations() NoticeDurations {
	return NoticeDurations{Success: 3 * time.Second, Error: 5 * time.Second}
}

var (
	successTitles = map[resource.Op]string{
		resource.OpCreate: "Service created",
		resource.OpUpdate: "Service updated",
		resource.OpRemove: "Service deleted",
	}
	successDetails = map[resource.Op]string{
		resource.OpCreate: "The service was successfully created.",
		resource.OpUpdate: "The service was successfully updated.",
		resource.OpRemove: "The service was successfully deleted.",
	}
	errorTitles = map[resource.Op]string{
		resource.OpCreate: "Error creating service",
		resource.OpUpdate: "Error updating service",
		resource.OpRemove: "Error deleting service",
	}
)

// MutationNotice describes the outcome of op.
func (d NoticeDurations) MutationNotice(op resource.Op, err error) Notice {
	if err != nil {
		return Notice{Level: LevelError, Title: errorTitles[op], Detail: causeOf(err), Duration: d.Error}
	}
	return Notice{Level: LevelSuccess, Title: successTitles[op], Detail: successDetails[op], Duration: d.Success}
}

// LoadNotice describes a failed collection fetch.
func (d NoticeDurations) LoadNotice(err error) Notice {
	return Notice{Level: LevelError, Title: "Error fetching services", Detail: causeOf(err), Duration: d.Error}
}

// causeOf strips the resource error envelope so notices show the cause.
func causeOf(err error) string {
	var me *resource.MutationError
	if errors.As(err, &me) {
		return me.Err.Error()
	}
	var le *resource.LoadError
	if errors.As(err, &le) {
		return le.Err.Error()
	}
	return err.Error()
}
