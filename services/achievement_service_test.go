package services

import (
	"context"
	"testing"

	"eco-track-service/models"
)

func TestEvaluateAwardsOnceAndNeverTwice(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAchievementService(gdb, NewNotifier(64))
	if err := svc.SeedTypes(context.Background()); err != nil {
		t.Fatalf("seed types: %v", err)
	}

	acc := createTestAccount(t, gdb, "user-achieve")
	if err := gdb.Model(acc).Updates(map[string]any{
		"total_points":  120,
		"trees_planted": 10,
	}).Error; err != nil {
		t.Fatalf("set aggregates: %v", err)
	}

	if err := svc.Evaluate(context.Background(), acc.ID); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	// Re-evaluating after another accrual must not duplicate earned awards.
	if err := svc.Evaluate(context.Background(), acc.ID); err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	views, err := svc.ListUserAchievements(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	earned := make(map[string]bool, len(views))
	for _, v := range views {
		if earned[v.Code] {
			t.Fatalf("achievement %s awarded twice", v.Code)
		}
		earned[v.Code] = true
	}
	for _, code := range []string{"FIRST_STEPS", "CENTURION", "TREE_HUGGER"} {
		if !earned[code] {
			t.Fatalf("expected %s to be earned, got %v", code, earned)
		}
	}
	if earned["POINT_COLLECTOR"] {
		t.Fatalf("POINT_COLLECTOR awarded below its threshold")
	}
}

func TestSeedTypesIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAchievementService(gdb, NewNotifier(64))

	if err := svc.SeedTypes(context.Background()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := svc.SeedTypes(context.Background()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	gdb.Model(&models.AchievementType{}).Count(&count)
	if want := int64(len(models.AchievementTriggers)); count != want {
		t.Fatalf("expected %d catalog rows, got %d", want, count)
	}
}
