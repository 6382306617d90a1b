package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"employee-export/internal/core/domain"
)

func TestMemoryExportJobRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	job := newTestJob(t, "EXP_AAAAAAAAAAAA", "user-1", time.Now())

	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, job); !errors.Is(err, domain.ErrExportExists) {
		t.Errorf("Expected ErrExportExists on duplicate create, got %v", err)
	}

	found, err := repo.FindByReferenceID(ctx, job.ReferenceID)
	if err != nil {
		t.Fatalf("FindByReferenceID failed: %v", err)
	}
	if found.Status != domain.StatusPending {
		t.Errorf("Expected PENDING, got %s", found.Status)
	}

	if _, err := repo.FindByReferenceID(ctx, "EXP_MISSING00000"); !errors.Is(err, domain.ErrExportNotFound) {
		t.Errorf("Expected ErrExportNotFound, got %v", err)
	}
}

func TestMemoryExportJobRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	job := newTestJob(t, "EXP_AAAAAAAAAAAA", "user-1", time.Now())
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, _ := repo.FindByReferenceID(ctx, job.ReferenceID)
	found.Parameters[0] = 'X'
	found.Status = domain.StatusCompleted

	again, _ := repo.FindByReferenceID(ctx, job.ReferenceID)
	if again.Status != domain.StatusPending || again.Parameters[0] == 'X' {
		t.Error("Mutating a returned job changed the stored job")
	}
}

func TestMemoryExportJobRepository_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	job := newTestJob(t, "EXP_AAAAAAAAAAAA", "user-1", time.Now())
	_ = repo.Create(ctx, job)

	if err := repo.TransitionStatus(ctx, domain.StatusProcessing, job.WithFailed("x")); !errors.Is(err, domain.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict, got %v", err)
	}
	if err := repo.TransitionStatus(ctx, domain.StatusPending, job.WithProcessing()); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if err := repo.TransitionStatus(ctx, domain.StatusPending, job.WithFailed("x")); !errors.Is(err, domain.ErrStatusConflict) {
		t.Errorf("Expected ErrStatusConflict after claim, got %v", err)
	}

	missing := newTestJob(t, "EXP_BBBBBBBBBBBB", "user-1", time.Now())
	if err := repo.TransitionStatus(ctx, domain.StatusPending, missing.WithProcessing()); !errors.Is(err, domain.ErrExportNotFound) {
		t.Errorf("Expected ErrExportNotFound, got %v", err)
	}
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrExportNotFound) {
		t.Errorf("Expected ErrExportNotFound from Update, got %v", err)
	}
}

func TestMemoryExportJobRepository_ConcurrentClaimHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	job := newTestJob(t, "EXP_AAAAAAAAAAAA", "user-1", time.Now())
	_ = repo.Create(ctx, job)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := job.WithProcessing()
			if i%2 == 0 {
				next = job.WithFailed(domain.CancelledByUserMessage)
			}
			if repo.TransitionStatus(ctx, domain.StatusPending, next) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Expected exactly one successful transition, got %d", wins)
	}
}

func TestMemoryExportJobRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	base := time.Now()

	for i := 0; i < 5; i++ {
		owner := "user-1"
		if i%2 == 1 {
			owner = "user-2"
		}
		job := newTestJob(t, fmt.Sprintf("EXP_%012d", i), owner, base.Add(time.Duration(5-i)*time.Second))
		if err := repo.Create(ctx, job); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, _ := repo.FindAll(ctx)
	if len(all) != 5 {
		t.Errorf("Expected 5 jobs, got %d", len(all))
	}

	mine, _ := repo.FindByOwner(ctx, "user-2")
	if len(mine) != 2 {
		t.Errorf("Expected 2 jobs for user-2, got %d", len(mine))
	}

	none, _ := repo.FindByOwner(ctx, "nobody")
	if none == nil || len(none) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", none)
	}

	pending, _ := repo.FindByStatus(ctx, domain.StatusPending)
	for i := 1; i < len(pending); i++ {
		if pending[i].CreatedAt.Before(pending[i-1].CreatedAt) {
			t.Fatalf("FindByStatus not oldest first at %d", i)
		}
	}

	count, _ := repo.CountByStatus(ctx, domain.StatusPending)
	if count != 5 {
		t.Errorf("Expected 5 pending, got %d", count)
	}
}

func TestMemoryEmployeeRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEmployeeRepository(testEmployees()...)
	assertEmployeeQueries(t, ctx, repo)
}

func TestMemoryExportJobRepository_RejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportJobRepository()
	job := newTestJob(t, "EXP_CCCCCCCCCCCC", "user-1", time.Now())
	if err := repo.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	if err := repo.TransitionStatus(ctx, domain.StatusPending, job.WithCompleted([]byte("x"))); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for PENDING -> COMPLETED, got %v", err)
	}

	stored, err := repo.FindByReferenceID(ctx, job.ReferenceID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("Rejected transition must not change the job, got %s", stored.Status)
	}
}
