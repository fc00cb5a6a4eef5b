package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nfrais/notes-de-frais/internal/core/events"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	"github.com/nfrais/notes-de-frais/internal/storage"
)

// ReceiptAPI is the slice of the receipt service the scan pipeline needs.
type ReceiptAPI interface {
	MarkScanProcessing(id string) error
	ApplyScanResult(id string, res receipt.ScanResult) error
	MarkScanFailed(id, reason string) error
}

type scanTask struct {
	JobID     string
	ReceiptID string
	ImagePath string
}

type Worker struct {
	ID         int
	WorkerPool chan chan scanTask
	JobChannel chan scanTask
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan scanTask, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan scanTask),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(scanTask)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case task := <-w.JobChannel:
				w.Logger.Debug("worker processing scan", "worker_id", w.ID, "receipt_id", task.ReceiptID)
				processFunc(task)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers     int
	JobQueueSize   int
	WorkerPoolSize int
}

// Processor drives receipt scans end to end: it receives queued scans, pulls
// the image from blob storage, calls the extraction API and writes the result
// back onto the receipt. Failures never block the receipt itself.
type Processor struct {
	client   Extractor
	store    storage.Storage
	receipts ReceiptAPI
	jobs     Repository
	logger   *slog.Logger

	jobQueue   chan scanTask
	workerPool chan chan scanTask
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewProcessor(client Extractor, store storage.Storage, receipts ReceiptAPI, jobs Repository, config PoolConfig, logger *slog.Logger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 64
	}

	workerPoolSize := config.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = maxWorkers
	}

	p := &Processor{
		client:   client,
		store:    store,
		receipts: receipts,
		jobs:     jobs,
		logger:   logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan scanTask, jobQueueSize),
		workerPool: make(chan chan scanTask, workerPoolSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	p.startWorkerPool()

	return p
}

func (p *Processor) startWorkerPool() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.process)
		}

		go p.dispatch()

		p.logger.Info("scan worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Processor) dispatch() {
	p.wg.Add(1)
	defer p.wg.Done()

	for {
		select {
		case task := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- task:

				case <-p.ctx.Done():
					p.logger.Info("scan dispatcher shutting down")
					return
				}
			case <-p.ctx.Done():
				p.logger.Info("scan dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("scan dispatcher shutting down")
			return
		}
	}
}

func (p *Processor) Shutdown() {
	p.logger.Info("shutting down scan processor")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("scan processor shutdown complete")
}

// RegisterHandlers wires the processor to the in-process event bus.
func (p *Processor) RegisterHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeScanQueued, p.handleScanQueued)
}

func (p *Processor) handleScanQueued(_ context.Context, event events.Event) error {
	queued, ok := event.(*events.ScanQueuedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}
	return p.Enqueue(queued.ReceiptID, queued.ImagePath)
}

// Enqueue records a scan job and hands it to the worker pool. When the pool
// queue is full the job row stays queued; Resume picks it up later.
func (p *Processor) Enqueue(receiptID, imagePath string) error {
	job := &Job{
		ID:        uuid.New().String(),
		ReceiptID: receiptID,
		ImagePath: imagePath,
		Status:    JobStatusQueued,
	}
	if err := p.jobs.Create(job); err != nil {
		p.logger.Error("failed to record scan job", "error", err, "receipt_id", receiptID)
		return err
	}

	task := scanTask{JobID: job.ID, ReceiptID: receiptID, ImagePath: imagePath}

	select {
	case p.jobQueue <- task:
		p.logger.Info("scan job queued",
			"receipt_id", receiptID,
			"job_id", job.ID,
			"queue_length", len(p.jobQueue))
		return nil
	default:
		p.logger.Warn("scan queue full, job deferred",
			"receipt_id", receiptID,
			"queue_capacity", cap(p.jobQueue))
		return nil
	}
}

// Resume re-queues jobs left pending by a previous run or a full queue.
func (p *Processor) Resume(limit int) error {
	pending, err := p.jobs.ListPending(limit)
	if err != nil {
		return err
	}

	for _, job := range pending {
		task := scanTask{JobID: job.ID, ReceiptID: job.ReceiptID, ImagePath: job.ImagePath}
		select {
		case p.jobQueue <- task:
		default:
			p.logger.Warn("scan queue full during resume", "job_id", job.ID)
			return nil
		}
	}

	if len(pending) > 0 {
		p.logger.Info("resumed pending scan jobs", "count", len(pending))
	}
	return nil
}

func (p *Processor) process(task scanTask) {
	job := &Job{ID: task.JobID, ReceiptID: task.ReceiptID, ImagePath: task.ImagePath, Status: JobStatusProcessing}
	if err := p.jobs.Update(job); err != nil {
		p.logger.Error("failed to mark scan job processing", "error", err, "job_id", task.JobID)
	}

	if err := p.receipts.MarkScanProcessing(task.ReceiptID); err != nil {
		p.fail(job, fmt.Sprintf("receipt unavailable: %v", err))
		return
	}

	data, err := p.store.Get(task.ImagePath)
	if err != nil {
		p.fail(job, fmt.Sprintf("image fetch failed: %v", err))
		return
	}

	req := ExtractionRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MediaType:   receipt.MediaTypeForPath(task.ImagePath),
	}

	result, err := p.client.Extract(p.ctx, req)
	if err != nil {
		p.fail(job, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	res := receipt.ScanResult{
		VendorName: result.VendorName,
		Date:       result.Date,
		TotalTTC:   result.TotalTTC,
		TVAAmount:  result.TVAAmount,
	}
	if err := p.receipts.ApplyScanResult(task.ReceiptID, res); err != nil {
		p.fail(job, fmt.Sprintf("applying result failed: %v", err))
		return
	}

	job.Status = JobStatusCompleted
	job.ErrorMessage = nil
	if err := p.jobs.Update(job); err != nil {
		p.logger.Error("failed to mark scan job completed", "error", err, "job_id", job.ID)
	}
}

func (p *Processor) fail(job *Job, reason string) {
	p.logger.Warn("scan failed", "job_id", job.ID, "receipt_id", job.ReceiptID, "reason", reason)

	if err := p.receipts.MarkScanFailed(job.ReceiptID, reason); err != nil {
		p.logger.Error("failed to mark receipt scan failed", "error", err, "receipt_id", job.ReceiptID)
	}

	job.Status = JobStatusFailed
	job.ErrorMessage = &reason
	if err := p.jobs.Update(job); err != nil {
		p.logger.Error("failed to mark scan job failed", "error", err, "job_id", job.ID)
	}
}
