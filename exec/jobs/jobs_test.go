package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTestCache(t *testing.T) *bbolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.bbolt")
	db, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadJob_UnknownID(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.NoError(t, err)

	require.Equal(t, StatusNotFound, m.ReadJob(999))
}

func TestAddJob_InProgressThenCompleted(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.NoError(t, err)

	release := make(chan struct{})
	id := m.AddJob(func() (string, error) {
		<-release
		return "done", nil
	})

	require.Equal(t, StatusInProgress, m.ReadJob(id))
	close(release)

	require.Eventually(t, func() bool {
		return m.ReadJob(id) == StatusCompleted
	}, time.Second, time.Millisecond)
}

func TestAddJob_IDsAreMonotonic(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.NoError(t, err)

	a := m.AddJob(func() (string, error) { return "", nil })
	b := m.AddJob(func() (string, error) { return "", nil })
	require.Equal(t, a+1, b)
}

func TestPersistedStatus_SurvivesManagerRestart(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)

	m1, err := NewManager(cache)
	require.NoError(t, err)

	release := make(chan struct{})
	id := m1.AddJob(func() (string, error) {
		<-release
		return "result-body", nil
	})
	close(release)
	require.Eventually(t, func() bool {
		return m1.ReadJob(id) == StatusCompleted
	}, time.Second, time.Millisecond)

	// A fresh Manager over the same cache file (simulating a process
	// restart) has no in-memory record of id, so it must fall back to the
	// persisted, MAC-verified entry rather than reporting "not complete".
	m2, err := NewManager(cache)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, m2.ReadJob(id))
}

func TestPersistedStatus_KeyReusedAcrossOpens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.bbolt")

	db1, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	m1, err := NewManager(db1)
	require.NoError(t, err)
	key1 := append([]byte(nil), m1.macKey...)
	require.NoError(t, db1.Close())

	db2, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db2.Close() })
	m2, err := NewManager(db2)
	require.NoError(t, err)

	require.Equal(t, key1, m2.macKey)
}

func TestLoadPersisted_TamperedRecordTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)
	m, err := NewManager(cache)
	require.NoError(t, err)

	payload := []byte(string(StatusCompleted) + "\x00ok")
	tampered := append(m.tag(payload), payload...)
	tampered[len(tampered)-1] ^= 0xff // corrupt the stored body after tagging

	err = cache.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucket).Put(jobKey(42), tampered)
	})
	require.NoError(t, err)

	require.Equal(t, StatusNotFound, m.ReadJob(42))
}

func TestNewManager_NilCacheDisablesPersistence(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.NoError(t, err)
	require.Nil(t, m.macKey)

	// Must not panic or attempt any bbolt I/O with no cache attached.
	require.Equal(t, StatusNotFound, m.ReadJob(1))
}
