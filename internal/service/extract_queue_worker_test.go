package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"dmeflow/internal/domain"
	"dmeflow/internal/service"
	"dmeflow/mocks"
)

func TestExtractQueueWorker_DispatchesClaimedNotes(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepo)
	noteService := new(mocks.MockNoteService)

	note := domain.Note{
		ID:               uuid.New(),
		S3Bucket:         "bucket",
		S3Key:            "key",
		ExtractionStatus: domain.ExtractionStatusProcessing,
	}
	noteRepo.On("ClaimQueued", mock.Anything, 2).Return([]domain.Note{note}, nil).Once()
	noteRepo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.Note{}, nil)

	var mu sync.Mutex
	var dispatched []*domain.Note
	noteService.On("ExtractNote", mock.Anything, mock.Anything, 3).
		Run(func(args mock.Arguments) {
			mu.Lock()
			dispatched = append(dispatched, args.Get(1).(*domain.Note))
			mu.Unlock()
		})

	worker := service.NewExtractQueueWorker(noteRepo, noteService, service.ExtractQueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(dispatched) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, note.ID, dispatched[0].ID)
	// The dispatch increments the attempt counter before extraction runs.
	assert.Equal(t, 1, dispatched[0].ExtractAttempts)
}

func TestExtractQueueWorker_StopsOnCancel(t *testing.T) {
	noteRepo := new(mocks.MockNoteRepo)
	noteRepo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.Note{}, nil)

	worker := service.NewExtractQueueWorker(noteRepo, new(mocks.MockNoteService), service.ExtractQueueConfig{
		PollInterval: 5 * time.Millisecond,
		MaxRetries:   1,
		Concurrency:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
