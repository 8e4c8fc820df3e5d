// Package report hands a finished match to local history and to the remote
// persistence service.
package report

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/persist"
)

const saveTimeout = 15 * time.Second

type Reporter struct {
	History *History
	Persist persist.Service
	Now     func() time.Time
	NewId   func() string
	// Shutdown ends with the process. Once it is done, saves no longer
	// follow their match context and get saveTimeout to finish.
	Shutdown context.Context

	pending sync.WaitGroup
}

func NewReporter(h *History, p persist.Service) *Reporter {
	if p == nil {
		p = persist.Nop{}
	}
	return &Reporter{
		History: h,
		Persist: p,
		Now:     time.Now,
		NewId:   uuid.NewString,
	}
}

// Report records the match in local history and starts saving it remotely.
// It returns the updated history right away; the remote save runs on its own
// and its failure is only logged. Cancelling ctx abandons the save, unless
// the process is shutting down.
func (r *Reporter) Report(ctx context.Context, p model.Profile, res model.MatchResult) []model.GameRecord {
	rec := model.GameRecord{
		Id:      r.NewId(),
		Date:    r.Now().UTC().Format(time.RFC3339),
		Profile: p,
		Result:  res,
	}
	records, err := r.History.Add(rec)
	if err != nil {
		log.WithField("record", rec.Id).Warnf("history not written: %v", err)
	}

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		stop := context.AfterFunc(ctx, func() {
			if !r.shuttingDown() {
				cancel()
			}
		})
		defer stop()
		if err := r.Persist.Save(saveCtx, p, res); err != nil {
			log.WithFields(log.Fields{"record": rec.Id, "player": p.Name}).Warnf("match not persisted: %v", err)
			return
		}
		log.WithField("record", rec.Id).Debug("match persisted")
	}()
	return records
}

func (r *Reporter) shuttingDown() bool {
	return r.Shutdown != nil && r.Shutdown.Err() != nil
}

// Wait blocks until every started save has finished or given up.
func (r *Reporter) Wait() {
	r.pending.Wait()
}
