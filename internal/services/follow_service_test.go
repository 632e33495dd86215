package services

import (
	"context"
	"testing"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

func TestFollowService_Subscribe_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &FollowService{DB: f.db}

	_, err := svc.Subscribe(ctx, f.bob.ID, f.bob.ID, 0)
	assertKind(t, err, ErrSelfFollow, "cannot follow yourself")

	_, err = svc.Subscribe(ctx, f.bob.ID, 999, 0)
	assertKind(t, err, ErrNotFound, "user not found")

	if _, err := svc.Subscribe(ctx, f.bob.ID, f.alice.ID, 0); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	_, err = svc.Subscribe(ctx, f.bob.ID, f.alice.ID, 0)
	assertKind(t, err, ErrDuplicate, "already following this author")

	// The reverse direction is a different pair.
	if _, err := svc.Subscribe(ctx, f.alice.ID, f.bob.ID, 0); err != nil {
		t.Fatalf("reverse Subscribe: %v", err)
	}
}

func TestFollowService_SelfCheckedBeforeExistence(t *testing.T) {
	f := newFixture(t)
	_, err := (&FollowService{DB: f.db}).Subscribe(context.Background(), 999, 999, 0)
	assertKind(t, err, ErrSelfFollow, "cannot follow yourself")
}

func TestFollowService_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &FollowService{DB: f.db}

	err := svc.Unsubscribe(ctx, f.bob.ID, f.alice.ID)
	assertKind(t, err, ErrNotFound, "not following this author")
	err = svc.Unsubscribe(ctx, f.bob.ID, 999)
	assertKind(t, err, ErrNotFound, "user not found")

	if _, err := svc.Subscribe(ctx, f.bob.ID, f.alice.ID, 0); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := svc.Unsubscribe(ctx, f.bob.ID, f.alice.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if n := countRows(t, f.db, &domain.Follow{}, "user_id = ?", f.bob.ID); n != 0 {
		t.Fatalf("follow left behind: %d", n)
	}
	if _, err := svc.Subscribe(ctx, f.bob.ID, f.alice.ID, 0); err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
}

func TestFollowService_SubscriptionView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &FollowService{DB: f.db}

	var ids []uint
	for _, name := range []string{"One", "Two", "Three"} {
		ids = append(ids, f.mkRecipe(t, f.alice, name).ID)
	}

	v, err := svc.Subscribe(ctx, f.bob.ID, f.alice.ID, 2)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !v.IsSubscribed || v.Username != "alice" || v.Email != "alice@example.com" {
		t.Fatalf("unexpected author view: %+v", v.UserView)
	}
	if v.RecipesCount != 3 {
		t.Fatalf("recipes_count: want 3, got %d", v.RecipesCount)
	}
	if len(v.Recipes) != 2 || v.Recipes[0].ID != ids[2] || v.Recipes[1].ID != ids[1] {
		t.Fatalf("want newest two recipes, got %+v", v.Recipes)
	}

	list, total, err := svc.ListSubscriptions(ctx, f.bob.ID, 1, 10, 0)
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if total != 1 || len(list) != 1 || len(list[0].Recipes) != 3 || list[0].RecipesCount != 3 {
		t.Fatalf("unlimited listing: total=%d items=%+v", total, list)
	}

	none, total, err := svc.ListSubscriptions(ctx, f.alice.ID, 1, 10, 0)
	if err != nil || total != 0 || len(none) != 0 {
		t.Fatalf("no follows: total=%d items=%v err=%v", total, none, err)
	}
}

func TestFollowService_ListSubscriptions_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &FollowService{DB: f.db}
	carol := mkUser(t, f.db, "carol")

	for _, id := range []uint{f.alice.ID, carol.ID} {
		if _, err := svc.Subscribe(ctx, f.bob.ID, id, 0); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
	}
	list, total, err := svc.ListSubscriptions(ctx, f.bob.ID, 1, 1, 0)
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if total != 2 || len(list) != 1 || list[0].ID != carol.ID {
		t.Fatalf("want carol first, got total=%d items=%+v", total, list)
	}
	if list[0].Recipes == nil || list[0].RecipesCount != 0 {
		t.Fatalf("author without recipes: %+v", list[0])
	}
}
