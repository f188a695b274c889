package tilesetanim

import (
	"context"
	"errors"
	"sync"
)

// frameJob is one frame to convert. Exports carry the RGB4A3 data and the
// PNG file to write, imports carry the image file to read and where to store
// the encoded result.
type frameJob struct {
	file string
	data []byte
	dst  *[]byte
}

type worker func(ctx context.Context, in <-chan frameJob) (<-chan error, error)

func (t *Tool) sendJobs(ctx context.Context, jobs []frameJob) (<-chan frameJob, <-chan error, error) {
	out := make(chan frameJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, job := range jobs {
			select {
			case out <- job:
			case <-ctx.Done():
				errc <- errors.New("pipeline cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

func (t *Tool) exportWorker(ctx context.Context, in <-chan frameJob) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for job := range in {
			if err := writeFrame(job.file, job.data); err != nil {
				errc <- err
				return
			}
			t.logger.Printf("Wrote %s\n", job.file)
		}
	}()
	return errc, nil
}

func (t *Tool) importWorker(opts encodeOptions) worker {
	return func(ctx context.Context, in <-chan frameJob) (<-chan error, error) {
		errc := make(chan error, 1)
		go func() {
			defer close(errc)
			for job := range in {
				b, err := encodeFrame(job.file, opts)
				if err != nil {
					errc <- err
					return
				}
				// Each job owns its destination so no locking is needed
				*job.dst = b
				t.logger.Printf("Encoded %s\n", job.file)
			}
		}()
		return errc, nil
	}
}

func (t *Tool) runPipeline(jobs []frameJob, w worker) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	in, errc, err := t.sendJobs(ctx, jobs)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < t.workers; i++ {
		errc, err := w(ctx, in)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}

// waitForPipeline returns the first error from any stage. It cancels the
// pipeline on that error and still waits for every stage to finish.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
