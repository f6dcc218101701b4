package pipeline

import (
	"context"
	"fmt"

	"github.com/sg6/epub-translator/book"
	"github.com/sg6/epub-translator/langs"
)

// sampleSize is the number of paragraphs used to detect the source language.
const sampleSize = 20

// EventKind tells what an Event carries.
type EventKind int

const (
	// Progress carries a completion percentage.
	Progress EventKind = iota
	// Done carries the output path; it is the last event of a successful run.
	Done
	// Failed carries the fatal error; it is the last event of a failed run.
	Failed
)

// Event is sent by a running Task.
type Event struct {
	Kind    EventKind
	Percent int
	Output  string
	Stats   Stats
	Err     error
}

// Job is one book to translate.
type Job struct {
	Input    string
	Pipeline Pipeline
	Exporter Exporter
}

// Run reads the input book, translates it and exports it, returning the
// output path.
func (j Job) Run(ctx context.Context) (string, Stats, error) {
	pkg, err := book.Open(j.Input)
	if err != nil {
		return "", Stats{}, err
	}

	if j.Pipeline.Source == langs.Auto {
		if code, err := langs.Detect(Sample(pkg, sampleSize)); err == nil {
			j.Pipeline.Log.Info("Detected source language: %s", langs.Label(code))
			j.Pipeline.Source = code
		} else {
			j.Pipeline.Log.Warn("%v; leaving it to the provider", err)
		}
	}

	out, stats, err := j.Pipeline.Translate(ctx, pkg)
	if err != nil {
		return "", stats, err
	}

	path, err := j.Exporter.Export(out, j.Input)
	if err != nil {
		return "", stats, err
	}
	j.Pipeline.Log.Success("EPUB translated and moved to %s", path)
	return path, stats, nil
}

// Task is a Job running on its own goroutine.
type Task struct {
	events chan Event
}

// Start runs job in the background. Progress events arrive in order, one
// per item, followed by exactly one Done or Failed event, after which the
// channel is closed. The job's own progress sink, if any, is still called.
func Start(ctx context.Context, job Job) *Task {
	t := &Task{events: make(chan Event, 16)}
	sink := job.Pipeline.Progress
	job.Pipeline.Progress = func(p int) {
		if sink != nil {
			sink(p)
		}
		t.events <- Event{Kind: Progress, Percent: p}
	}

	go func() {
		defer close(t.events)
		defer func() {
			if r := recover(); r != nil {
				t.events <- Event{Kind: Failed, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		path, stats, err := job.Run(ctx)
		if err != nil {
			t.events <- Event{Kind: Failed, Stats: stats, Err: err}
			return
		}
		t.events <- Event{Kind: Done, Output: path, Stats: stats}
	}()
	return t
}

// Events returns the task's event stream.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Wait drains the event stream and returns the final event.
func (t *Task) Wait() Event {
	var last Event
	for ev := range t.events {
		last = ev
	}
	return last
}
