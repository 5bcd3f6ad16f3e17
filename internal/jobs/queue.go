package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/internal/ingestion"
	"github.com/kgraph/engine/internal/ingestion/chunker"
	"github.com/kgraph/engine/internal/jobs/analyzer"
	"github.com/kgraph/engine/internal/jobs/dedup"
)

// DefaultPoolSize is the default fixed-size worker pool.
const DefaultPoolSize = 4

// parallelChunkWorkers bounds fan-out within a single job when
// processing_mode is parallel; the serial default processes one chunk at a
// time regardless of this cap.
const parallelChunkWorkers = 4

// SubmitParams is the input to Queue.Submit.
type SubmitParams struct {
	ContentHash    string
	Ontology       string
	WordCount      int
	Type           Type
	AutoApprove    bool
	Force          bool
	Filename       string
	SourceType     entities.SourceType
	SourcePath     string
	SourceHostname string

	// Chunking and processing parameters (spec.md §6); zero values fall
	// back to chunker.DefaultParams() and serial processing in Submit.
	TargetWords        int
	MinWords           int
	MaxWords           int
	OverlapWords       int
	CheckpointInterval int
	ProcessingMode     ProcessingMode
}

// Queue is a durable FIFO job queue whose worker pool drives the ingestion
// engine with bounded concurrency across jobs, using golang.org/x/sync for
// bounded fan-out. Within a job, chunks run serially unless the job's
// processing_mode is parallel.
type Queue struct {
	store    ports.JobStore
	content  ports.ContentStore
	graph    ports.GraphStore
	engine   *ingestion.Engine
	dedup    *dedup.Checker
	analyzer *analyzer.Analyzer
	poolSize int64
	logger   *zap.Logger
}

func NewQueue(store ports.JobStore, content ports.ContentStore, graph ports.GraphStore, engine *ingestion.Engine, poolSize int, logger *zap.Logger) *Queue {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Queue{
		store:    store,
		content:  content,
		graph:    graph,
		engine:   engine,
		dedup:    dedup.NewChecker(store, graph),
		analyzer: analyzer.New(),
		poolSize: int64(poolSize),
		logger:   logger,
	}
}

// Submit runs the content-hash dedup check, enqueues a pending job, then
// runs offline cost analysis synchronously (no LLM calls, so this is
// cheap), moving the job to awaiting_approval or straight to approved when
// auto_approve was requested at submission.
func (q *Queue) Submit(ctx context.Context, p SubmitParams) (*ports.JobRecord, error) {
	if !p.Force {
		dup, err := q.dedup.CheckDuplicate(ctx, p.ContentHash, p.Ontology)
		if err != nil {
			return nil, err
		}
		if dup.Duplicate {
			return nil, kgerrors.Conflict("DUPLICATE_CONTENT", fmt.Sprintf("content already present (source=%s)", dup.Source)).
				WithResource(p.ContentHash).Build()
		}
	}

	processingMode := p.ProcessingMode
	if processingMode == "" {
		processingMode = ProcessingModeSerial
	}
	checkpointInterval := p.CheckpointInterval
	if checkpointInterval <= 0 {
		checkpointInterval = 1
	}
	defaults := chunker.DefaultParams()
	targetWords, minWords, maxWords, overlapWords := p.TargetWords, p.MinWords, p.MaxWords, p.OverlapWords
	if targetWords <= 0 {
		targetWords = defaults.TargetWords
	}
	if minWords <= 0 {
		minWords = defaults.MinWords
	}
	if maxWords <= 0 {
		maxWords = defaults.MaxWords
	}
	if overlapWords < 0 {
		overlapWords = defaults.OverlapWords
	}

	job := &Job{
		JobID:              valueobjects.NewJobID().String(),
		Status:             StatusPending,
		Type:               p.Type,
		ContentHash:        p.ContentHash,
		Ontology:           p.Ontology,
		Filename:           p.Filename,
		SourceType:         p.SourceType,
		SourcePath:         p.SourcePath,
		SourceHostname:     p.SourceHostname,
		CreatedAt:          time.Now(),
		AutoApprove:        p.AutoApprove,
		ResumeFromChunk:    -1, // no chunk checkpointed yet; chunk_index 0 must still run
		Version:            1,
		TargetWords:        targetWords,
		MinWords:           minWords,
		MaxWords:           maxWords,
		OverlapWords:       overlapWords,
		CheckpointInterval: checkpointInterval,
		ProcessingMode:     processingMode,
	}

	analysis := q.analyzer.Analyze(analyzer.Input{WordCount: p.WordCount, ContentHash: p.ContentHash, Ontology: p.Ontology})
	job.Analysis = analysis.AsMap()
	job.ChunksTotal = analysis.EstimatedChunks

	if err := job.Transition(StatusAwaitingApproval); err != nil {
		return nil, err
	}
	if job.AutoApprove {
		if err := job.Transition(StatusApproved); err != nil {
			return nil, err
		}
	}

	record := toRecord(job)
	if err := q.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("jobs: save submitted job: %w", err)
	}
	return record, nil
}

// Approve transitions a job awaiting_approval -> approved.
func (q *Queue) Approve(ctx context.Context, jobID string) error {
	record, err := q.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job := fromRecord(record)
	if err := job.Transition(StatusApproved); err != nil {
		return err
	}
	return q.store.Save(ctx, toRecord(job))
}

// Cancel transitions a job to cancelled regardless of its current
// non-terminal state (user request or lifecycle scheduler timeout).
func (q *Queue) Cancel(ctx context.Context, jobID, reason string) error {
	record, err := q.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job := fromRecord(record)
	if err := job.Transition(StatusCancelled); err != nil {
		return err
	}
	job.Error = reason
	return q.store.Save(ctx, toRecord(job))
}

// RecoverOnRestart runs a crash-recovery scan: every `processing` job
// either resumes (reset to approved, re-enqueued) or is marked completed
// if it had in fact finished all chunks before the crash.
func (q *Queue) RecoverOnRestart(ctx context.Context) error {
	processing, err := q.store.ListByStatus(ctx, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("jobs: recovery scan: %w", err)
	}
	for _, record := range processing {
		job := fromRecord(record)
		if job.ResumeFromChunk < job.ChunksTotal {
			job.Status = StatusApproved
		} else {
			now := time.Now()
			job.Status = StatusCompleted
			job.CompletedAt = &now
		}
		if err := q.store.Save(ctx, toRecord(job)); err != nil {
			q.logger.Error("jobs: recovery save failed", zap.String("job_id", job.JobID), zap.Error(err))
		}
	}
	return nil
}

// Run drives the worker pool: it polls for approved jobs FIFO and
// processes up to poolSize concurrently; each job's chunks run serially
// unless its processing_mode is parallel. Run blocks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	sem := semaphore.NewWeighted(q.poolSize)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			approved, err := q.store.ListByStatus(ctx, string(StatusApproved))
			if err != nil {
				q.logger.Error("jobs: poll failed", zap.Error(err))
				continue
			}
			for _, record := range approved {
				if !sem.TryAcquire(1) {
					break
				}
				record := record
				go func() {
					defer sem.Release(1)
					q.runJob(ctx, record)
				}()
			}
		}
	}
}

func (q *Queue) runJob(ctx context.Context, record *ports.JobRecord) {
	job := fromRecord(record)
	if err := job.Transition(StatusProcessing); err != nil {
		return
	}
	if err := q.store.Save(ctx, toRecord(job)); err != nil {
		q.logger.Error("jobs: mark processing failed", zap.String("job_id", job.JobID), zap.Error(err))
		return
	}

	raw, err := q.content.Get(ctx, job.ContentHash)
	if err != nil {
		q.fail(ctx, job, fmt.Errorf("load content: %w", err))
		return
	}
	params := chunker.Params{
		TargetWords:  job.TargetWords,
		MinWords:     job.MinWords,
		MaxWords:     job.MaxWords,
		OverlapWords: job.OverlapWords,
	}
	chunks := chunker.Split(string(raw), params)
	job.ChunksTotal = len(chunks)

	docID, err := valueobjects.ParseDocumentID(job.ContentHash)
	if err != nil {
		q.fail(ctx, job, fmt.Errorf("parse document id: %w", err))
		return
	}

	if job.Type == TypeForceIngest {
		if err := q.supersedeIfExists(ctx, job); err != nil {
			q.fail(ctx, job, err)
			return
		}
	}

	chunkInputFor := func(c chunker.Chunk, current *ports.JobRecord) ingestion.ChunkInput {
		return ingestion.ChunkInput{
			Job:            current,
			Chunk:          c,
			Filename:       job.Filename,
			Ontology:       job.Ontology,
			ContentHash:    job.ContentHash,
			DocumentID:     docID,
			SourceType:     job.SourceType,
			SourcePath:     job.SourcePath,
			SourceHostname: job.SourceHostname,
		}
	}

	if job.ProcessingMode == ProcessingModeParallel {
		if err := q.runChunksParallel(ctx, job, chunks, chunkInputFor); err != nil {
			q.fail(ctx, job, err)
			return
		}
	} else {
		if err := q.runChunksSerial(ctx, job, chunks, chunkInputFor); err != nil {
			q.fail(ctx, job, err)
			return
		}
	}

	if err := job.Transition(StatusCompleted); err != nil {
		q.logger.Error("jobs: mark completed failed", zap.String("job_id", job.JobID), zap.Error(err))
		return
	}
	if err := q.store.Save(ctx, toRecord(job)); err != nil {
		q.logger.Error("jobs: save completed job failed", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

// runChunksSerial processes chunks one at a time against the real job
// record, the original step-2 resumable ingestion loop.
func (q *Queue) runChunksSerial(ctx context.Context, job *Job, chunks []chunker.Chunk, chunkInputFor func(chunker.Chunk, *ports.JobRecord) ingestion.ChunkInput) error {
	for _, c := range chunks {
		if c.ChunkIndex <= job.ResumeFromChunk {
			continue // already checkpointed past this chunk
		}
		current := toRecord(job)
		if err := q.engine.ProcessChunk(ctx, chunkInputFor(c, current)); err != nil {
			return fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
		}
		*job = *fromRecord(current)
	}
	return nil
}

// runChunksParallel fans chunks out across up to parallelChunkWorkers
// goroutines (spec.md §6's processing_mode=parallel). Each goroutine runs
// ProcessChunk against an isolated JobRecord snapshot whose accumulating
// fields (AccumulatedStats, RecentConceptIDs, ResumeFromChunk) start empty,
// so engine.ProcessChunk's += and append operations produce a pure
// per-chunk delta instead of racing on a shared base. Deltas are merged
// into the real job under mu, with ResumeFromChunk tracked as a monotonic
// max since chunks can complete out of order.
func (q *Queue) runChunksParallel(ctx context.Context, job *Job, chunks []chunker.Chunk, chunkInputFor func(chunker.Chunk, *ports.JobRecord) ingestion.ChunkInput) error {
	pending := make([]chunker.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.ChunkIndex > job.ResumeFromChunk {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	checkpointInterval := job.CheckpointInterval
	if checkpointInterval <= 0 {
		checkpointInterval = 1
	}

	base := toRecord(job)
	var mu sync.Mutex
	completed := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelChunkWorkers)

	for _, c := range pending {
		c := c
		g.Go(func() error {
			// delta is a throwaway JobRecord: every engine.ProcessChunk step
			// that mutates a JobRecord (AccumulatedStats, RecentConceptIDs,
			// ResumeFromChunk) does so via +=/append, so starting it from a
			// near-empty copy of the real job yields this chunk's pure
			// contribution instead of racing with sibling goroutines on a
			// shared base. ChunksTotal is left 0 and CheckpointInterval set
			// past any chunk index so checkpointStep's own durable save
			// never fires on the delta; runChunksParallel saves the merged
			// job itself, respecting checkpoint_interval below.
			delta := &ports.JobRecord{
				JobID:              base.JobID,
				Status:             base.Status,
				Type:               base.Type,
				ContentHash:        base.ContentHash,
				Ontology:           base.Ontology,
				ResumeFromChunk:    -1,
				CheckpointInterval: len(chunks) + 1,
			}
			if err := q.engine.ProcessChunk(gctx, chunkInputFor(c, delta)); err != nil {
				return fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
			}

			mu.Lock()
			if job.AccumulatedStats == nil {
				job.AccumulatedStats = map[string]int{}
			}
			for k, v := range delta.AccumulatedStats {
				job.AccumulatedStats[k] += v
			}
			job.RecentConceptIDs = lastN(append(job.RecentConceptIDs, delta.RecentConceptIDs...), 50)
			if delta.ResumeFromChunk > job.ResumeFromChunk {
				job.ResumeFromChunk = delta.ResumeFromChunk
			}
			job.Version++
			completed++
			due := completed == len(pending) || completed%checkpointInterval == 0
			var snapshot *ports.JobRecord
			if due {
				snapshot = toRecord(job)
			}
			mu.Unlock()

			if snapshot != nil {
				if err := q.store.Save(gctx, snapshot); err != nil {
					return fmt.Errorf("checkpoint chunk %d: %w", c.ChunkIndex, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// lastN returns the last n elements of ids, or all of them if there are
// fewer than n.
func lastN(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[len(ids)-n:]
}

// supersedeIfExists runs SupersedeSaga when a force-ingest job's
// content_hash already has a DocumentMeta row (the case P7 dedup would
// normally reject): a version-bumped DocumentMeta is saved up front, before
// any chunk runs, so ingestion.loadOrCreateDocument's own DocumentByHash
// check finds it and does not attempt to create a competing row. A
// force-ingest of a content_hash with no prior document is a plain first
// ingestion and falls through to loadOrCreateDocument as usual.
func (q *Queue) supersedeIfExists(ctx context.Context, job *Job) error {
	existing, err := q.graph.DocumentByHash(ctx, job.ContentHash, job.Ontology)
	if err != nil {
		return fmt.Errorf("supersede: check existing document: %w", err)
	}
	if existing == nil {
		return nil
	}
	jobID, err := valueobjects.ParseJobID(job.JobID)
	if err != nil {
		return fmt.Errorf("supersede: parse job id: %w", err)
	}
	newDoc, err := entities.NewDocumentMeta(entities.NewDocumentMetaParams{
		ContentHash: job.ContentHash,
		Ontology:    job.Ontology,
		Filename:    job.Filename,
		SourceType:  job.SourceType,
		SourcePath:  job.SourcePath,
		Hostname:    job.SourceHostname,
		JobID:       jobID,
	})
	if err != nil {
		return fmt.Errorf("supersede: build new document version: %w", err)
	}
	saga := NewSupersedeSaga(q.graph, job.ContentHash, newDoc, q.logger)
	return saga.Execute(ctx, job.Ontology)
}

func (q *Queue) fail(ctx context.Context, job *Job, cause error) {
	job.Error = cause.Error()
	if err := job.Transition(StatusFailed); err != nil {
		q.logger.Error("jobs: transition to failed rejected", zap.String("job_id", job.JobID), zap.Error(err))
	}
	if err := q.store.Save(ctx, toRecord(job)); err != nil {
		q.logger.Error("jobs: save failed job failed", zap.String("job_id", job.JobID), zap.Error(err))
	}
	q.logger.Warn("jobs: job failed", zap.String("job_id", job.JobID), zap.Error(cause))
}

func toRecord(j *Job) *ports.JobRecord {
	return &ports.JobRecord{
		JobID:              j.JobID,
		Status:             string(j.Status),
		Type:               string(j.Type),
		ContentHash:        j.ContentHash,
		Ontology:           j.Ontology,
		Filename:           j.Filename,
		SourceType:         string(j.SourceType),
		SourcePath:         j.SourcePath,
		SourceHostname:     j.SourceHostname,
		ResumeFromChunk:    j.ResumeFromChunk,
		ChunksTotal:        j.ChunksTotal,
		AccumulatedStats:   j.AccumulatedStats,
		RecentConceptIDs:   j.RecentConceptIDs,
		Analysis:           j.Analysis,
		AutoApprove:        j.AutoApprove,
		TargetWords:        j.TargetWords,
		MinWords:           j.MinWords,
		MaxWords:           j.MaxWords,
		OverlapWords:       j.OverlapWords,
		CheckpointInterval: j.CheckpointInterval,
		ProcessingMode:     string(j.ProcessingMode),
		CreatedAt:          j.CreatedAt,
		ApprovedAt:         j.ApprovedAt,
		ExpiresAt:          j.ExpiresAt,
		CompletedAt:        j.CompletedAt,
		Error:              j.Error,
		Version:            j.Version,
	}
}

func fromRecord(r *ports.JobRecord) *Job {
	return &Job{
		JobID:              r.JobID,
		Status:             Status(r.Status),
		Type:               Type(r.Type),
		ContentHash:        r.ContentHash,
		Ontology:           r.Ontology,
		Filename:           r.Filename,
		SourceType:         entities.SourceType(r.SourceType),
		SourcePath:         r.SourcePath,
		SourceHostname:     r.SourceHostname,
		ResumeFromChunk:    r.ResumeFromChunk,
		ChunksTotal:        r.ChunksTotal,
		AccumulatedStats:   r.AccumulatedStats,
		RecentConceptIDs:   r.RecentConceptIDs,
		Analysis:           r.Analysis,
		AutoApprove:        r.AutoApprove,
		TargetWords:        r.TargetWords,
		MinWords:           r.MinWords,
		MaxWords:           r.MaxWords,
		OverlapWords:       r.OverlapWords,
		CheckpointInterval: r.CheckpointInterval,
		ProcessingMode:     ProcessingMode(r.ProcessingMode),
		CreatedAt:          r.CreatedAt,
		ApprovedAt:         r.ApprovedAt,
		ExpiresAt:          r.ExpiresAt,
		CompletedAt:        r.CompletedAt,
		Error:              r.Error,
		Version:            r.Version,
	}
}
