// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"sync"
	"time"

	"github.com/foodvision/datasetprep/pkg/datasetprep"
	"github.com/foodvision/datasetprep/pkg/kaggle"
)

// JobStatus represents the state of a preparation job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents a dataset preparation job.
type Job struct {
	ID        string     `json:"id"`
	Dataset   string     `json:"dataset"`
	Ref       string     `json:"ref"`
	Force     bool       `json:"force,omitempty"`
	OutputDir string     `json:"outputDir"`
	Status    JobStatus  `json:"status"`
	Stage     string     `json:"stage,omitempty"`
	Classes   int        `json:"classes,omitempty"`
	Skipped   bool       `json:"skipped,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	// Downloaded/Total track the bundle fetch.
	Downloaded int64 `json:"downloaded,omitempty"`
	Total      int64 `json:"total,omitempty"`

	cancel context.CancelFunc
}

// JobManager manages preparation jobs.
type JobManager struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	config Config
	wsHub  *WSHub

	// runFn executes a job; swappable in tests.
	runFn func(ctx context.Context, job *Job) (*datasetprep.Result, error)
}

// NewJobManager creates a new job manager.
func NewJobManager(cfg Config, wsHub *WSHub) *JobManager {
	m := &JobManager{
		jobs:   make(map[string]*Job),
		config: cfg,
		wsHub:  wsHub,
	}
	m.runFn = m.prepare
	return m
}

// generateID creates a short random ID.
func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// CreateJob creates a new preparation job. An active job for the same
// dataset+ref is returned instead of starting a duplicate.
func (m *JobManager) CreateJob(req PrepareRequest) (*Job, bool, error) {
	spec, ok := datasetprep.Lookup(req.Dataset)
	if !ok {
		return nil, false, errUnknownDataset(req.Dataset)
	}

	ref := req.Ref
	if ref == "" {
		ref = spec.Ref
	}

	// Output lives under the server-configured root, never the request.
	outputDir := filepath.Join(m.config.DatasetsDir, spec.Name)

	m.mu.Lock()
	for _, existing := range m.jobs {
		if existing.Dataset == spec.Name && existing.Ref == ref &&
			(existing.Status == JobStatusQueued || existing.Status == JobStatusRunning) {
			m.mu.Unlock()
			return existing, true, nil
		}
	}

	job := &Job{
		ID:        generateID(),
		Dataset:   spec.Name,
		Ref:       ref,
		Force:     req.Force,
		OutputDir: outputDir,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.runJob(job)

	return job, false, nil
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelJob cancels a running or queued job.
func (m *JobManager) CancelJob(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return false
	}

	if job.Status == JobStatusQueued || job.Status == JobStatusRunning {
		if job.cancel != nil {
			job.cancel()
		}
		job.Status = JobStatusCancelled
		now := time.Now()
		job.EndedAt = &now
		m.notify(job)
		return true
	}
	return false
}

// DeleteJob removes a job from the list, cancelling it if active.
func (m *JobManager) DeleteJob(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return false
	}
	if job.cancel != nil && (job.Status == JobStatusQueued || job.Status == JobStatusRunning) {
		job.cancel()
	}
	delete(m.jobs, id)
	return true
}

func (m *JobManager) notify(job *Job) {
	if m.wsHub != nil {
		m.wsHub.BroadcastJob(job)
	}
}

// runJob executes the preparation job.
func (m *JobManager) runJob(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())
	job.cancel = cancel
	defer cancel()

	m.mu.Lock()
	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	m.mu.Unlock()
	m.notify(job)

	res, err := m.runFn(ctx, job)

	m.mu.Lock()
	endTime := time.Now()
	job.EndedAt = &endTime
	switch {
	case ctx.Err() != nil:
		job.Status = JobStatusCancelled
	case err != nil:
		job.Status = JobStatusFailed
		job.Error = err.Error()
	default:
		job.Status = JobStatusCompleted
		job.Classes = res.ClassCount
		job.Skipped = res.Skipped
	}
	m.mu.Unlock()
	m.notify(job)
}

// prepare is the real job body: download, normalize, copy.
func (m *JobManager) prepare(ctx context.Context, job *Job) (*datasetprep.Result, error) {
	spec, _ := datasetprep.Lookup(job.Dataset)

	creds, err := kaggle.LoadCredentials()
	if err != nil {
		return nil, err
	}

	client := kaggle.NewClient(kaggle.Settings{
		Endpoint:    m.config.Endpoint,
		CacheDir:    m.config.CacheDir,
		Credentials: creds,
		Progress: func(downloaded, total int64) {
			m.mu.Lock()
			job.Downloaded = downloaded
			job.Total = total
			m.mu.Unlock()
			m.notify(job)
		},
	})

	cfg := datasetprep.Settings{
		OutputDir: job.OutputDir,
		Force:     job.Force,
		Ref:       job.Ref,
	}

	progress := func(ev datasetprep.ProgressEvent) {
		m.mu.Lock()
		job.Stage = ev.Event
		m.mu.Unlock()
		m.notify(job)
	}

	return datasetprep.Prepare(ctx, client, spec, cfg, progress)
}
