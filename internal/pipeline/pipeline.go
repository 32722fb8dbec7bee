// Package pipeline is the server-side processing stage. It polls for
// uploaded items still in progress, produces a transcription, derives an
// image prompt, renders the image and marks the item finished, pushing
// progress over the websocket hub along the way.
//
// Transcription and image generation are deterministic local stand-ins for
// the real speech-to-text and diffusion services.
package pipeline

import (
	"fmt"
	"hash/fnv"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tomtuamnuq/speak2see-go/internal/core"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
	"github.com/tomtuamnuq/speak2see-go/internal/store"
)

const batchSize = 4

// Scenes the stand-in transcriber picks from, keyed by audio content hash
// so the same recording always yields the same result.
var scenes = []string{
	"a lighthouse on a cliff at sunset",
	"a red fox crossing a snowy field",
	"a sailboat drifting through morning fog",
	"an old oak tree struck by lightning",
	"a street market under paper lanterns",
	"a mountain lake mirroring the stars",
	"a steam train leaving a tunnel",
	"a heron standing in shallow water",
}

// Worker drives the processing of uploaded items.
type Worker struct {
	app   *core.App
	store *store.Store
}

func NewWorker(app *core.App) *Worker {
	return &Worker{app: app, store: store.New(app.DB)}
}

// Start schedules the worker to poll for pending items at the configured
// interval.
func Start(app *core.App) *gocron.Scheduler {
	worker := NewWorker(app)

	interval := app.Config.Processing.Interval
	if interval <= 0 {
		interval = 5
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(interval).Seconds().Do(worker.ProcessPending)
	if err != nil {
		log.Printf("Error scheduling processing job: %v", err)
	}
	log.Printf("Processing pipeline polling every %d seconds.", interval)
	s.StartAsync()
	return s
}

// ProcessPending works through the current backlog, oldest upload first.
func (w *Worker) ProcessPending() {
	pending, err := w.store.NextPendingItems(batchSize)
	if err != nil {
		log.Printf("Error fetching pending items: %v", err)
		return
	}
	for _, item := range pending {
		w.process(item)
	}
}

func (w *Worker) process(item store.PendingItem) {
	w.app.Hub.BroadcastProgress(models.ProgressUpdate{
		ItemID:  item.ID,
		Message: "Transcribing audio...",
		Status:  models.StatusInProgress,
	})

	transcription := transcribe(item.Audio)
	prompt := fmt.Sprintf("A dramatic oil painting of %s.", transcription)

	w.app.Hub.BroadcastProgress(models.ProgressUpdate{
		ItemID:  item.ID,
		Message: "Generating image...",
		Status:  models.StatusInProgress,
	})

	image, err := RenderImage(prompt)
	if err != nil {
		log.Printf("Image generation failed for item %s: %v", item.ID, err)
		if err := w.store.FailItem(item.ID, err.Error(), &transcription, &prompt); err != nil {
			log.Printf("Error marking item %s failed: %v", item.ID, err)
			return
		}
		w.app.Hub.BroadcastProgress(models.ProgressUpdate{
			ItemID:  item.ID,
			Message: "Image generation failed.",
			Status:  models.StatusFailed,
			Done:    true,
		})
		return
	}

	if err := w.store.CompleteItem(item.ID, transcription, prompt, image); err != nil {
		log.Printf("Error completing item %s: %v", item.ID, err)
		return
	}
	w.app.Hub.BroadcastProgress(models.ProgressUpdate{
		ItemID:  item.ID,
		Message: "Processing finished.",
		Status:  models.StatusFinished,
		Done:    true,
	})
}

// transcribe maps the audio content to one of the canned scenes. Identical
// recordings always produce the same transcription.
func transcribe(audio []byte) string {
	h := fnv.New32a()
	h.Write(audio)
	return scenes[int(h.Sum32())%len(scenes)]
}
