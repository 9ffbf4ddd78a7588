package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wfm/internal/platform/config"
)

const (
	JobBalanceInit         = "pto_balance_init"
	JobNotificationCleanup = "notification_cleanup"
)

type Service struct {
	DB    *pgxpool.Pool
	Cfg   config.Config
	queue chan job

	// BalanceInit runs the yearly PTO balance initialization for one org.
	BalanceInit func(ctx context.Context, orgID string, year int) (any, error)
}

type job struct {
	Type  string
	OrgID string
	Run   func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config) *Service {
	return &Service{
		DB:    db,
		Cfg:   cfg,
		queue: make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.BalanceInitInterval > 0 && s.BalanceInit != nil {
		go s.scheduleBalanceInit(ctx, s.Cfg.BalanceInitInterval)
	}
	if s.Cfg.NotificationRetention > 0 {
		go s.scheduleNotificationCleanup(ctx, 24*time.Hour)
	}
}

func (s *Service) Enqueue(jobType, orgID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, OrgID: orgID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "orgId", orgID)
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "orgId", j.OrgID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (organization_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.OrgID, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleBalanceInit(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			orgs, err := s.listOrganizations(ctx)
			if err != nil {
				slog.Warn("balance init scheduler org lookup failed", "err", err)
				continue
			}
			year := time.Now().Year()
			for _, orgID := range orgs {
				org := orgID
				s.Enqueue(JobBalanceInit, org, func(ctx context.Context) (any, error) {
					return s.BalanceInit(ctx, org, year)
				})
			}
		}
	}
}

func (s *Service) scheduleNotificationCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.Cfg.NotificationRetention)
			orgs, err := s.listOrganizations(ctx)
			if err != nil {
				slog.Warn("notification cleanup scheduler org lookup failed", "err", err)
				continue
			}
			for _, orgID := range orgs {
				org := orgID
				s.Enqueue(JobNotificationCleanup, org, func(ctx context.Context) (any, error) {
					tag, err := s.DB.Exec(ctx, `
            DELETE FROM notifications
            WHERE organization_id = $1 AND read_at IS NOT NULL AND created_at < $2
          `, org, cutoff)
					if err != nil {
						return nil, err
					}
					return map[string]any{"deleted": tag.RowsAffected(), "cutoff": cutoff}, nil
				})
			}
		}
	}
}

func (s *Service) listOrganizations(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM organizations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
