package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guiyumin/vget/internal/core/stream"
)

var errQueueFull = errors.New("stream job queue is full")

// StreamJob tracks one extractor-backed download queued through
// /api/stream/download. It mirrors Job's shape so the WebUI can reuse
// the same polling pattern, but is driven by stream.DownloadDriver
// instead of the generic HTTP downloader.
type StreamJob struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	FormatId   string    `json:"format_id"`
	Status     JobStatus `json:"status"`
	Downloaded int64     `json:"downloaded"`
	Total      int64     `json:"total"`
	Filename   string    `json:"filename,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	cancel context.CancelFunc
	ctx    context.Context
}

// StreamJobQueue is the stream-subsystem counterpart to JobQueue: a
// bounded worker pool, one stream.DownloadDriver per job.
type StreamJobQueue struct {
	cfg           stream.Config
	mergeFormat   string
	outputPattern string

	mu            sync.RWMutex
	jobs          map[string]*StreamJob
	queue         chan *StreamJob
	maxConcurrent int
	wg            sync.WaitGroup
}

// NewStreamJobQueue creates a queue bound to cfg. outputPattern is an
// extractor --output template (e.g. "%(title)s.%(ext)s"); mergeFormat is
// the container used for merged video+audio formats, "" to let the
// extractor choose.
func NewStreamJobQueue(cfg stream.Config, maxConcurrent int, outputPattern, mergeFormat string) *StreamJobQueue {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if outputPattern == "" {
		outputPattern = "%(title)s.%(ext)s"
	}
	return &StreamJobQueue{
		cfg:           cfg,
		mergeFormat:   mergeFormat,
		outputPattern: outputPattern,
		jobs:          make(map[string]*StreamJob),
		queue:         make(chan *StreamJob, 100),
		maxConcurrent: maxConcurrent,
	}
}

// Start begins the worker pool.
func (q *StreamJobQueue) Start() {
	for i := 0; i < q.maxConcurrent; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (q *StreamJobQueue) Stop() {
	close(q.queue)
	q.wg.Wait()
}

func (q *StreamJobQueue) worker() {
	defer q.wg.Done()
	for job := range q.queue {
		q.processJob(job)
	}
}

func (q *StreamJobQueue) processJob(job *StreamJob) {
	q.updateStatus(job.ID, JobStatusDownloading, "")

	driver := stream.NewDownloadDriver(q.cfg)
	driver.SetUrl(job.URL)
	driver.SetLocalFullOutputPath(q.outputPattern)
	driver.SetSelectedFormatId(stream.ParseFormatId(job.FormatId))
	if q.mergeFormat != "" {
		driver.SetFileExtensionHint(q.mergeFormat)
	}
	driver.Start()

	go func() {
		<-job.ctx.Done()
		driver.Abort()
	}()

	for ev := range driver.Events() {
		switch {
		case ev.Progress != nil:
			q.updateProgress(job.ID, ev.Progress.BytesReceived, ev.Progress.BytesTotal)
		case ev.MetadataChanged != nil && ev.MetadataChanged.Filename != "":
			q.updateFilename(job.ID, ev.MetadataChanged.Filename)
		case ev.Finished != nil:
			q.updateStatus(job.ID, JobStatusCompleted, "")
		case ev.Err != "":
			if job.ctx.Err() == context.Canceled {
				q.updateStatus(job.ID, JobStatusCancelled, "cancelled by user")
			} else {
				q.updateStatus(job.ID, JobStatusFailed, ev.Err)
			}
		}
	}
}

// AddJob queues a new stream download for url at formatId.
func (q *StreamJobQueue) AddJob(url, formatId string) (*StreamJob, error) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &StreamJob{
		ID:        uuid.NewString(),
		URL:       url,
		FormatId:  formatId,
		Status:    JobStatusQueued,
		Total:     -1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	select {
	case q.queue <- job:
		return job, nil
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		cancel()
		return nil, errQueueFull
	}
}

// GetJob returns a copy of the job for id, or nil if unknown.
func (q *StreamJobQueue) GetJob(id string) *StreamJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if job, ok := q.jobs[id]; ok {
		cp := *job
		return &cp
	}
	return nil
}

// GetAllJobs returns a snapshot of every tracked job.
func (q *StreamJobQueue) GetAllJobs() []*StreamJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*StreamJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		cp := *job
		out = append(out, &cp)
	}
	return out
}

// CancelJob requests cancellation of a queued or running job.
func (q *StreamJobQueue) CancelJob(id string) bool {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return false
	}
	job.cancel()
	return true
}

func (q *StreamJobQueue) updateStatus(id string, status JobStatus, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.Status = status
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}

func (q *StreamJobQueue) updateProgress(id string, downloaded, total int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.Downloaded = downloaded
		job.Total = total
		job.UpdatedAt = time.Now()
	}
}

func (q *StreamJobQueue) updateFilename(id, filename string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.Filename = filename
		job.UpdatedAt = time.Now()
	}
}
