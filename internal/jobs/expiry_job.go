package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"realest/internal/services"
)

// ExpiryJob periodically sweeps live listings past their expiry date into
// the expired status.
type ExpiryJob struct {
	service *services.PropertyService
	cron    *cron.Cron
}

func NewExpiryJob(service *services.PropertyService) *ExpiryJob {
	return &ExpiryJob{
		service: service,
		cron:    cron.New(),
	}
}

// Start schedules the sweep with a cron spec (e.g. "@hourly") and runs it
// once immediately.
func (j *ExpiryJob) Start(spec string) error {
	j.run()

	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	j.cron.Start()
	return nil
}

// Stop halts the scheduler.
func (j *ExpiryJob) Stop() {
	j.cron.Stop()
}

func (j *ExpiryJob) run() {
	expired, err := j.service.ExpireStale(context.Background())
	if err != nil {
		log.Printf("Expiry sweep error: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Expiry sweep: %d listings expired", expired)
	}
}
