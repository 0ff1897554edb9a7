// Package jobs implements the Job Manager (C12): an in-process registry of
// long-running catch-up jobs keyed by a monotonic uint32 id.
package jobs

import (
	"bytes"
	"crypto/rand"
	"sync"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"
)

// Status is a job's terminal/non-terminal state string, returned verbatim
// by GET /catchups/{id} (spec.md §6.1).
type Status string

const (
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
	StatusNotFound   Status = "not complete"
)

type jobRecord struct {
	status Status
	result string
}

// Manager tracks jobs in memory and persists completed results to a bbolt
// cache keyed by job id, so a completed job's status survives a process
// restart (SPEC_FULL.md §D.2). Each persisted record carries a keyed
// blake2b integrity tag: the cache file sits on local disk next to the
// process, and a record whose tag doesn't verify is treated as absent
// rather than trusted.
type Manager struct {
	mu     sync.Mutex
	jobs   map[uint32]*jobRecord
	latest uint32

	cache  *bbolt.DB
	bucket []byte
	macKey []byte
}

const cacheBucket = "catchup_jobs"
const macKeyRecordKey = "_mac_key"

// NewManager returns a Manager. cache may be nil to disable restart
// persistence, in which case no integrity key is needed either. The MAC key
// is generated once and persisted alongside the job records, so records
// written before a restart still verify afterward; a fresh random key every
// call would make every previously persisted record unverifiable.
func NewManager(cache *bbolt.DB) (*Manager, error) {
	m := &Manager{
		jobs:   make(map[uint32]*jobRecord),
		cache:  cache,
		bucket: []byte(cacheBucket),
	}
	if cache != nil {
		err := cache.Update(func(tx *bbolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(m.bucket)
			if err != nil {
				return err
			}
			if key := b.Get([]byte(macKeyRecordKey)); key != nil {
				m.macKey = append([]byte(nil), key...)
				return nil
			}
			key := make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			m.macKey = key
			return b.Put([]byte(macKeyRecordKey), key)
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// tag computes a keyed blake2b integrity tag over data.
func (m *Manager) tag(data []byte) []byte {
	mac, _ := blake2b.New256(m.macKey)
	mac.Write(data)
	return mac.Sum(nil)
}

// AddJob allocates the next monotonic id, marks it in progress, and
// returns it immediately; run executes on its own goroutine.
func (m *Manager) AddJob(run func() (string, error)) uint32 {
	m.mu.Lock()
	m.latest++
	id := m.latest
	m.jobs[id] = &jobRecord{status: StatusInProgress}
	m.mu.Unlock()

	go func() {
		result, err := run()
		status := StatusCompleted
		if err != nil {
			result = err.Error()
		}

		m.persist(id, status, result)

		m.mu.Lock()
		m.jobs[id] = &jobRecord{status: status, result: result}
		m.mu.Unlock()
	}()

	return id
}

// ReadJob returns the job's status string, or StatusNotFound if the id is
// unknown in both the in-memory map and the persisted cache.
func (m *Manager) ReadJob(id uint32) Status {
	m.mu.Lock()
	rec, ok := m.jobs[id]
	m.mu.Unlock()
	if ok {
		return rec.status
	}

	if status, found := m.loadPersisted(id); found {
		return status
	}

	return StatusNotFound
}

func (m *Manager) persist(id uint32, status Status, result string) {
	if m.cache == nil {
		return
	}
	payload := []byte(string(status) + "\x00" + result)
	record := append(m.tag(payload), payload...)
	_ = m.cache.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(m.bucket)
		return b.Put(jobKey(id), record)
	})
}

func (m *Manager) loadPersisted(id uint32) (Status, bool) {
	if m.cache == nil {
		return "", false
	}
	var found bool
	var status Status
	_ = m.cache.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(m.bucket)
		v := b.Get(jobKey(id))
		const tagLen = 32
		if len(v) < tagLen {
			return nil
		}
		wantTag, payload := v[:tagLen], v[tagLen:]
		if !bytes.Equal(wantTag, m.tag(payload)) {
			return nil
		}
		found = true
		for i, c := range payload {
			if c == 0 {
				status = Status(payload[:i])
				return nil
			}
		}
		status = Status(payload)
		return nil
	})
	return status, found
}

func jobKey(id uint32) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}
