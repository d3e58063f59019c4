// Package audit holds the evaluation engine's append-only finished-challenge
// report archive and its periodic scratch-space cleanup sweep. It never
// feeds back into the scheduler: a restart re-judges nothing from here, it
// only gives operators a durable record of what was decided and a place to
// reclaim disk space from.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/swarmguard/judge-engine/internal/model"
)

var bucketReports = []byte("reports")

// Archive is a durable, append-only record of every challenge's final
// result, keyed by challenge id. Grounded on the teacher's WorkflowStore
// bbolt wiring, trimmed to one bucket: there is no hot in-memory cache here
// because nothing ever reads this data back into a live scheduler decision.
type Archive struct {
	db *bbolt.DB

	writeLatency metric.Float64Histogram
}

// Record is what gets archived for one finished challenge.
type Record struct {
	ChalID      int64           `json:"chalId"`
	FinishedAt  time.Time       `json:"finishedAt"`
	TotalStatus int             `json:"totalStatus"`
	Result      *model.Result   `json:"result"`
}

// Open opens (creating if absent) the bbolt-backed archive at dbPath.
func Open(dbPath string, meter metric.Meter) (*Archive, error) {
	opts := &bbolt.Options{
		Timeout:      1 * time.Second,
		NoSync:       false,
		FreelistType: bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(dbPath, 0o600, opts)
	if err != nil {
		return nil, fmt.Errorf("open audit archive: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReports)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}

	writeLatency, _ := meter.Float64Histogram("judge_audit_write_ms")
	return &Archive{db: db, writeLatency: writeLatency}, nil
}

// Close closes the underlying database file.
func (a *Archive) Close() error { return a.db.Close() }

// Put appends (or overwrites, for a re-judge) one challenge's final report.
func (a *Archive) Put(rec Record) error {
	start := time.Now()
	defer func() {
		a.writeLatency.Record(context.Background(), float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "put_report")))
	}()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketReports).Put(recordKey(rec.ChalID), data)
	})
}

// Get fetches one challenge's archived report, if present.
func (a *Archive) Get(chalID int64) (*Record, bool, error) {
	var rec Record
	found := false
	err := a.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketReports).Get(recordKey(chalID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &rec, true, nil
}

// PruneOlderThan deletes archived reports finished before the cutoff,
// returning the count removed.
func (a *Archive) PruneOlderThan(cutoff time.Time) (int, error) {
	removed := 0
	err := a.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketReports)
		cursor := bucket.Cursor()
		var staleKeys [][]byte
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.FinishedAt.Before(cutoff) {
				staleKeys = append(staleKeys, append([]byte(nil), k...))
			}
		}
		for _, k := range staleKeys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func recordKey(chalID int64) []byte {
	return []byte(fmt.Sprintf("%020d", chalID))
}
