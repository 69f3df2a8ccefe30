package service

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"diligence-tracker/internal/config"
)

// SchedulerService wraps cron-based jobs. Jobs that panic are logged and
// do not stop the scheduler.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, clock string, job func()) (cron.EntryID, error) {
	spec, err := dailySpec(clock)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, guard(name, job))
}

// ScheduleInterval registers a job that runs every interval.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("schedule %s: interval %s is shorter than a second", name, interval)
	}
	return s.cron.Schedule(cron.Every(interval), cron.FuncJob(guard(name, job))), nil
}

// Next returns the next run time of an entry.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func guard(name string, job func()) func() {
	return func() {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[error] job %s panicked: %v", name, r)
				return
			}
			log.Printf("[info] job %s finished in %s", name, time.Since(start).Round(time.Millisecond))
		}()
		job()
	}
}

func dailySpec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
