package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"MoneyLoop/internal/domain/models"
	domrepo "MoneyLoop/internal/domain/repository"
	pkgch "MoneyLoop/pkg/clickhouse"
	applogger "MoneyLoop/pkg/logger"
)

// CHRunArchive implements RunArchive backed by ClickHouse. Rows are
// append-only; a run is never updated after insert.
type CHRunArchive struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHRunArchive(ch *pkgch.Client) *CHRunArchive {
	return &CHRunArchive{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (a *CHRunArchive) SetLogger(l *applogger.Logger) { a.l = l }

var runArchiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS money_runs (
        run_id          String,
        generated_at    DateTime64(3, 'UTC'),
        market          String,
        keywords        Array(String),
        budget          Float64,
        signal_count    UInt32,
        opp_count       UInt32,
        top_opportunity String,
        top_score       Float64,
        used_openai     UInt8,
        warning_count   UInt32,
        report_json     String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(generated_at)
    ORDER BY (generated_at, run_id)`,
	`CREATE TABLE IF NOT EXISTS money_signals (
        run_id       String,
        signal_id    String,
        source       String,
        keyword      String,
        title        String,
        url          String,
        popularity   Int32,
        comments     Int32,
        relevance    Float64,
        rank         Float64,
        generated_at DateTime64(3, 'UTC')
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(generated_at)
    ORDER BY (generated_at, run_id, signal_id)`,
}

// Init creates the archive tables if they do not exist.
func (a *CHRunArchive) Init(ctx context.Context) error {
	return a.ch.InitSchema(ctx, runArchiveSchema)
}

// StoreRun appends one run row plus one row per kept signal.
func (a *CHRunArchive) StoreRun(ctx context.Context, report *models.RunReport) error {
	start := time.Now()

	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	topTitle := ""
	topScore := 0.0
	if report.TopOpportunity != nil {
		topTitle = report.TopOpportunity.Title
		topScore = report.TopOpportunity.Score
	}
	usedOpenAI := uint8(0)
	if report.UsedOpenAI {
		usedOpenAI = 1
	}

	const runInsert = `
        INSERT INTO money_runs
            (run_id, generated_at, market, keywords, budget, signal_count,
             opp_count, top_opportunity, top_score, used_openai, warning_count, report_json)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = a.db.ExecContext(ctx, runInsert,
		report.RunID, report.GeneratedAt, report.Input.Market, report.Input.Keywords,
		report.Input.Budget, uint32(len(report.Signals)), uint32(len(report.Opportunities)),
		topTitle, topScore, usedOpenAI, uint32(len(report.Warnings)), string(raw),
	)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse store_run insert error",
				applogger.String("runId", report.RunID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store run: %w", err)
	}

	if len(report.Signals) > 0 {
		if err := a.storeSignals(ctx, report); err != nil {
			return err
		}
	}

	if a.l != nil {
		a.l.Debug("run archived",
			applogger.String("runId", report.RunID),
			applogger.Int("signals", len(report.Signals)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (a *CHRunArchive) storeSignals(ctx context.Context, report *models.RunReport) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin signal batch: %w", err)
	}

	const sigInsert = `
        INSERT INTO money_signals
            (run_id, signal_id, source, keyword, title, url,
             popularity, comments, relevance, rank, generated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	stmt, err := tx.PrepareContext(ctx, sigInsert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare signal batch: %w", err)
	}
	defer stmt.Close()

	for _, sig := range report.Signals {
		if _, err := stmt.ExecContext(ctx,
			report.RunID, sig.ID, sig.Source, sig.Keyword, sig.Title, sig.URL,
			int32(sig.Popularity), int32(sig.Comments), sig.Relevance, sig.Rank,
			report.GeneratedAt,
		); err != nil {
			_ = tx.Rollback()
			if a.l != nil {
				a.l.Error("clickhouse store_signal insert error",
					applogger.String("runId", report.RunID),
					applogger.String("signalId", sig.ID),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store signal: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signal batch: %w", err)
	}
	return nil
}

// Health checks archive connectivity.
func (a *CHRunArchive) Health(ctx context.Context) error {
	return a.ch.Health(ctx)
}

// Close releases the connection pool.
func (a *CHRunArchive) Close() error {
	return a.ch.Close()
}

var _ domrepo.RunArchive = (*CHRunArchive)(nil)
