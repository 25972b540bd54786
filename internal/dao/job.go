package dao

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pngcrypt-go/internal/storage"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// Job status values
const (
	JobStatusDone   = "done"
	JobStatusFailed = "failed"
)

// Job records one encrypt or decrypt request
type Job struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"` // block-encrypt, png-decrypt, ...
	Algorithm string    `json:"algorithm"`
	Source    string    `json:"source"` // "body" or the fetched URL
	Chunks    int       `json:"chunks"`
	Bytes     int64     `json:"bytes"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JobDAO persists job history
type JobDAO struct {
	store storage.Backend
}

// NewJobDAO creates a new job DAO
func NewJobDAO(store storage.Backend) *JobDAO {
	return &JobDAO{store: store}
}

// newJobID returns a sortable ID: creation time in hex followed by random bytes
func newJobID(t time.Time) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%016x-%s", t.UnixNano(), hex.EncodeToString(suffix))
}

// Record stores a job, assigning ID and CreatedAt if unset
func (d *JobDAO) Record(job *Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.ID == "" {
		job.ID = newJobID(job.CreatedAt)
	}
	return storage.SetJSON(d.store, storage.BucketJobs, job.ID, job)
}

// Get retrieves a job by ID
func (d *JobDAO) Get(id string) (*Job, error) {
	var job Job
	found, err := storage.GetJSON(d.store, storage.BucketJobs, id, &job)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// List returns up to limit jobs, newest first. limit <= 0 means all.
func (d *JobDAO) List(limit int) ([]*Job, error) {
	data, err := d.store.GetAll(storage.BucketJobs)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(data))
	for _, v := range data {
		var job Job
		if err := json.Unmarshal(v, &job); err == nil {
			jobs = append(jobs, &job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
