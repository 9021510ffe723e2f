package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"book_insights/internal/apperr"
	"book_insights/internal/segment"
	"book_insights/internal/table"
)

// Classifier turns one sentence into its rows. It must not touch state
// shared with other calls.
type Classifier func(s segment.Sentence) ([]table.Row, error)

// chunksPerWorker keeps workers busy when sentence costs are uneven.
const chunksPerWorker = 4

type span struct {
	start, end int
}

// Dispatch classifies sentences on a bounded worker pool and returns the
// rows in sentence order, exactly as Sequential would. workers <= 0 means one
// per CPU. The first failing sentence cancels the remaining work and its
// error is returned without any rows.
func Dispatch(ctx context.Context, sentences []segment.Sentence, workers int, fn Classifier) ([]table.Row, error) {
	if fn == nil {
		return nil, fmt.Errorf("dispatch: nil classifier")
	}
	if len(sentences) == 0 {
		return []table.Row{}, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	workers = min(workers, len(sentences))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([][]table.Row, len(sentences))
	jobs := make(chan span)
	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		failure  error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			failure = err
			cancel()
		})
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				for i := job.start; i < job.end; i++ {
					if ctx.Err() != nil {
						break
					}
					rows, err := classifyOne(fn, sentences[i])
					if err != nil {
						fail(err)
						break
					}
					slots[i] = rows
				}
			}
		}()
	}

	size := max(1, (len(sentences)+workers*chunksPerWorker-1)/(workers*chunksPerWorker))
feed:
	for start := 0; start < len(sentences); start += size {
		select {
		case jobs <- span{start: start, end: min(start+size, len(sentences))}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	return flatten(slots), nil
}

// Sequential classifies sentences one after another in order.
func Sequential(sentences []segment.Sentence, fn Classifier) ([]table.Row, error) {
	slots := make([][]table.Row, len(sentences))
	for i, s := range sentences {
		rows, err := classifyOne(fn, s)
		if err != nil {
			return nil, err
		}
		slots[i] = rows
	}
	return flatten(slots), nil
}

func classifyOne(fn Classifier, s segment.Sentence) (rows []table.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &apperr.WorkerError{SentenceIndex: s.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	rows, err = fn(s)
	if err != nil {
		return nil, &apperr.WorkerError{SentenceIndex: s.Index, Err: err}
	}
	return rows, nil
}

func flatten(slots [][]table.Row) []table.Row {
	n := 0
	for _, s := range slots {
		n += len(s)
	}
	out := make([]table.Row, 0, n)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}
