package helper

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

var sweepCron *cron.Cron

// StartExpirySweep runs the pending-hold expiry sweep every minute.
func StartExpirySweep(engine *BookingEngine) {
	sweepCron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := sweepCron.AddFunc("* * * * *", func() {
		n, err := engine.ExpireSweep(context.Background())
		if err != nil {
			log.Printf("expiry sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("expired %d unconfirmed holds", n)
		}
	})
	if err != nil {
		log.Printf("cannot schedule expiry sweep: %v", err)
		return
	}

	sweepCron.Start()
	log.Println("expiry sweep scheduled (every minute)")
}

func StopExpirySweep() {
	if sweepCron != nil {
		sweepCron.Stop()
	}
}

var pruneScheduler gocron.Scheduler

// StartIndexPruner evicts past days from the availability index once a
// day. The index reloads days on demand, so this only bounds memory.
func StartIndexPruner(engine *BookingEngine) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		log.Printf("cannot create index pruner: %v", err)
		return
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(3, 30, 0),
			),
		),
		gocron.NewTask(func() {
			n := engine.PruneIndex()
			if n > 0 {
				log.Printf("pruned %d past availability days", n)
			}
		}),
	)
	if err != nil {
		log.Printf("cannot schedule index pruner: %v", err)
		return
	}

	pruneScheduler = s
	s.Start()
	log.Println("availability index pruner scheduled (daily 03:30)")
}

func StopIndexPruner() {
	if pruneScheduler != nil {
		_ = pruneScheduler.Shutdown()
	}
}
