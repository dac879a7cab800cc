package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/madialex/accounthub/internal/domain/user"
	"github.com/madialex/accounthub/internal/repo/memory"
)

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	if _, err := repo.Create(ctx, user.New("Alice", "a@x.com", "h1")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := repo.Create(ctx, user.New("Other Alice", "a@x.com", "h2"))

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("duplicate create must not add a record, have %d", len(all))
	}
}

func TestGetByEmailAndID(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, user.New("Alice", "a@x.com", "h1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("GetByEmail returned wrong record")
	}

	byID, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Fatalf("GetByID returned wrong record")
	}

	if _, err := repo.GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("missing email should yield ErrNotFound, got %v", err)
	}

	if _, err := repo.GetByID(ctx, "missing-id"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("missing id should yield ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	u, err := repo.Create(ctx, user.New("Alice", "a@x.com", "h1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	u.Name = "Alicia"

	updated, err := repo.Update(ctx, u)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != "Alicia" {
		t.Fatalf("Name = %q, want Alicia", updated.Name)
	}

	// email collision with another record
	other, err := repo.Create(ctx, user.New("Bob", "b@x.com", "h2"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	other.Email = "a@x.com"

	if _, err := repo.Update(ctx, other); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	ghost := user.New("Ghost", "g@x.com", "h3")

	if _, err := repo.Update(ctx, ghost); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("updating a missing record should yield ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	u, err := repo.Create(ctx, user.New("Alice", "a@x.com", "h1"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("deleted record still readable")
	}

	if err := repo.Delete(ctx, u.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second delete should yield ErrNotFound, got %v", err)
	}
}
