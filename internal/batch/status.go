// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	switch j.Status {
	case "completed", "failed", "expired", "cancelled",
		"JOB_STATE_SUCCEEDED", "JOB_STATE_FAILED", "JOB_STATE_CANCELLED", "JOB_STATE_EXPIRED":
		return true
	}
	return false
}

// Succeeded reports whether the job finished with results to harvest.
func (j Job) Succeeded() bool {
	return j.Status == "completed" || j.Status == "JOB_STATE_SUCCEEDED"
}

// Print writes a human-readable status block for the job.
func (j Job) Print(w io.Writer) {
	fmt.Fprintf(w, "job:     %s (%s)\n", j.ID, j.Vendor)
	fmt.Fprintf(w, "status:  %s\n", j.Status)
	if j.CreatedAt > 0 {
		fmt.Fprintf(w, "created: %s\n", time.Unix(j.CreatedAt, 0).UTC().Format(time.RFC3339))
	}
	if j.Completed > 0 {
		fmt.Fprintf(w, "done:    %s\n", time.Unix(j.Completed, 0).UTC().Format(time.RFC3339))
	}
	if j.Total > 0 {
		fmt.Fprintf(w, "requests: %d total, %d completed, %d failed\n", j.Total, j.Done, j.Failed)
	}
	if j.OutputFile != "" {
		fmt.Fprintf(w, "output:  %s\n", j.OutputFile)
	}
	if j.ErrorFile != "" {
		fmt.Fprintf(w, "errors:  %s\n", j.ErrorFile)
	}
}

// Poll fetches the job state every interval until it reaches a terminal
// state, printing each observation on w.
func Poll(ctx context.Context, fetch func(context.Context) (Job, error), interval time.Duration, w io.Writer) (Job, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		job, err := fetch(ctx)
		if err != nil {
			return Job{}, err
		}
		fmt.Fprintf(w, "%s  %s\n", time.Now().UTC().Format(time.RFC3339), job.Status)
		if job.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-time.After(interval):
		}
	}
}
