package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mgoubet/urlshortener/internal/models"
	"github.com/mgoubet/urlshortener/internal/repository"
)

// storeTimeout bounds each click-increment call so a stuck store can never
// pin a worker forever.
const storeTimeout = 5 * time.Second

// StartClickWorkers launches a pool of worker goroutines that turn click
// events into counter increments on the corresponding link rows. Recording
// is best-effort: failures are logged and the event is dropped, redirects
// are never blocked or failed because of them.
//
// The returned WaitGroup is done once every worker has exited, which happens
// after clickEventsChan is closed and drained.
func StartClickWorkers(workerCount int, clickEventsChan <-chan models.ClickEvent, linkRepo repository.LinkRepository) *sync.WaitGroup {
	log.Printf("Starting %d click worker(s)...", workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clickWorker(clickEventsChan, linkRepo)
		}()
	}
	return &wg
}

// clickWorker drains the channel until it is closed.
func clickWorker(clickEventsChan <-chan models.ClickEvent, linkRepo repository.LinkRepository) {
	for event := range clickEventsChan {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := linkRepo.IncrementClicks(ctx, event.ShortCode)
		cancel()

		if err != nil {
			log.Printf("ERROR: Failed to record click for %s (UserAgent: %s, IP: %s): %v",
				event.ShortCode, event.UserAgent, event.IPAddress, err)
			continue
		}
		log.Printf("Click recorded for %s", event.ShortCode)
	}
}
