// Command jobsctl triggers and inspects background jobs from the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/shoebox/backoffice/jobs"
)

func main() {
	redisAddr := flag.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	trigger := flag.String("trigger", "", "job to enqueue (session:purge or audit:prune)")
	retention := flag.Duration("retention", 90*24*time.Hour, "retention window for audit:prune")
	stats := flag.Bool("stats", false, "print queue statistics")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *trigger != "" {
		client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: *redisAddr})
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer client.Close()

		var info *asynq.TaskInfo
		switch *trigger {
		case jobs.TaskSessionPurge:
			info, err = client.EnqueueSessionPurge(ctx)
		case jobs.TaskAuditPrune:
			info, err = client.EnqueueAuditPrune(ctx, jobs.AuditPrunePayload{Retention: *retention})
		default:
			log.Fatalf("unsupported job %q", *trigger)
		}
		if err != nil {
			log.Fatalf("enqueue %s: %v", *trigger, err)
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", *trigger, info.ID, info.Queue)
		return
	}

	if *stats {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: *redisAddr})
		defer inspector.Close()

		info, err := inspector.GetQueueInfo(jobs.QueueDefault)
		if err != nil {
			log.Fatalf("queue info: %v", err)
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry)
		return
	}

	flag.Usage()
	os.Exit(2)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
