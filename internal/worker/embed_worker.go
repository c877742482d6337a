package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docvoice/internal/app"
	"docvoice/internal/model"
)

// EmbedWorker consumes embed jobs and fills chunk vectors. Ingestion and
// retrieval stay decoupled: uploads return immediately and documents flip to
// processed once their last pending chunk is embedded.
type EmbedWorker struct {
	conn      *amqp.Connection
	ingest    *app.IngestService
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEmbedWorker(conn *amqp.Connection, ingest *app.IngestService, queueName string) *EmbedWorker {
	return &EmbedWorker{
		conn:      conn,
		ingest:    ingest,
		queueName: queueName,
	}
}

func (w *EmbedWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	deliveries, ch, err := consume(w.conn, w.queueName)
	if err != nil {
		cancel()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job model.EmbedJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("embed worker decode failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.ingest.EmbedPending(workerCtx, job.DocumentID, job.ChunkID); err != nil {
					log.Printf("embed worker: document %d failed: %v", job.DocumentID, err)
					// requeue once; a poisoned job drops on the second pass
					_ = d.Nack(false, !d.Redelivered)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EmbedWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
