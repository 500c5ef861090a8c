package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/utils"
)

// EmbedAll embeds texts on a worker pool of the given size. The result keeps
// the order of texts. The first failure cancels the remaining work.
func EmbedAll(ctx context.Context, emb interfaces.Embedder, texts []string, concurrency int) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeSystem, "failed to create embedding worker pool")
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	vectors := make([][]float64, len(texts))
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, text := range texts {
		wg.Add(1)
		idx, content := i, text
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			vec, err := emb.GetEmbedding(ctx, content)
			if err != nil {
				fail(utils.WrapError(err, "", fmt.Sprintf("chunk %d", idx)))
				return
			}
			vectors[idx] = vec
		})
		if err != nil {
			wg.Done()
			fail(utils.WrapError(err, utils.ErrorTypeSystem, "failed to submit embedding task"))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
