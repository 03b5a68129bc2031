package jobs

import (
	"log"
	"time"

	"github.com/gomezmarket/gomezbot-backend/internal/services"
)

// SessionSweepJob periodically flips idle sessions to inactive so the next
// message from those senders reactivates them with a fresh context.
type SessionSweepJob struct {
	sessions *services.SessionService
	interval time.Duration
	stop     chan struct{}
}

// NewSessionSweepJob builds the sweeper with its default 30-minute cadence.
func NewSessionSweepJob(sessions *services.SessionService) *SessionSweepJob {
	return &SessionSweepJob{
		sessions: sessions,
		interval: 30 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (j *SessionSweepJob) Start() {
	log.Printf("⏰ Session sweep running every %v", j.interval)
	go j.run()
}

// Stop halts the sweep loop.
func (j *SessionSweepJob) Stop() {
	close(j.stop)
	log.Println("Session sweep stopped")
}

func (j *SessionSweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := j.sessions.SweepExpired(); err != nil {
				log.Printf("❌ Session sweep failed: %v", err)
			}
		case <-j.stop:
			return
		}
	}
}
