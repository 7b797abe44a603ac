// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package simulation

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mirrorpanel/server/catalog"
	"github.com/mirrorpanel/server/testutil"
)

func TestStartRerunAssignsConsecutiveRunNumbers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "Snack Preferences")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips", "Fruit"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Chips"))

	orch := NewOrchestrator(db, testutil.FixedAnswers("Chips"), cfg)

	resp1, runs1, err := orch.StartRerun(context.Background(), surveyID, 2, "consistency check")
	if err != nil {
		t.Fatalf("First StartRerun failed: %v", err)
	}
	orch.RunBatch(context.Background(), runs1)

	_, runs2, err := orch.StartRerun(context.Background(), surveyID, 2, "second pass")
	if err != nil {
		t.Fatalf("Second StartRerun failed: %v", err)
	}

	got := []int{runs1[0].RunNumber, runs1[1].RunNumber, runs2[0].RunNumber, runs2[1].RunNumber}
	want := []int{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Run %d: expected run number %d, got %d", i, want[i], got[i])
		}
	}

	if resp1.RunID != runs1[0].ID {
		t.Errorf("Expected run_id to be the first created run, got %s", resp1.RunID)
	}
	if len(resp1.RunIDs) != 2 {
		t.Errorf("Expected 2 run_ids, got %d", len(resp1.RunIDs))
	}
	if resp1.PersonaCount != 1 {
		t.Errorf("Expected persona count 1, got %d", resp1.PersonaCount)
	}
}

func TestStartRerunPreconditions(t *testing.T) {
	t.Run("no questions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		cfg := testutil.GetTestConfig()
		surveyID := testutil.CreateTestSurvey(t, db, "Empty Survey")
		persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
		testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Yes"))

		orch := NewOrchestrator(db, testutil.FixedAnswers("Yes"), cfg)
		_, _, err := orch.StartRerun(context.Background(), surveyID, 1, "")
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for survey without questions, got %v", err)
		}
		assertNoRuns(t, db, surveyID)
	})

	t.Run("no baseline personas", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		cfg := testutil.GetTestConfig()
		surveyID := testutil.CreateTestSurvey(t, db, "No Baseline")
		testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})

		orch := NewOrchestrator(db, testutil.FixedAnswers("Chips"), cfg)
		_, _, err := orch.StartRerun(context.Background(), surveyID, 1, "")
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for survey without baseline results, got %v", err)
		}
		assertNoRuns(t, db, surveyID)
	})

	t.Run("baseline under a different model does not count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		cfg := testutil.GetTestConfig()
		surveyID := testutil.CreateTestSurvey(t, db, "Wrong Model")
		testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})
		persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
		testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "Claude", testutil.Answers("Chips"))

		orch := NewOrchestrator(db, testutil.FixedAnswers("Chips"), cfg)
		_, _, err := orch.StartRerun(context.Background(), surveyID, 1, "")
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("Expected ErrNotFound when baseline model has no results, got %v", err)
		}
	})

	t.Run("zero rerun count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		orch := NewOrchestrator(db, testutil.FixedAnswers("x"), testutil.GetTestConfig())
		_, _, err := orch.StartRerun(context.Background(), "any", 0, "")
		if err == nil {
			t.Error("Expected error for rerun count 0")
		}
	})
}

func assertNoRuns(t *testing.T, db *sql.DB, surveyID string) {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM simulation_run WHERE survey_id = $1`, surveyID).Scan(&count); err != nil {
		t.Fatalf("Failed to count runs: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no run rows after failed precondition, found %d", count)
	}
}

func TestRunBatchCompletesProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "Progress Survey")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips", "Fruit"})
	testutil.AddTestQuestion(t, db, surveyID, 2, "How often do you snack?", "single_select", []string{"Daily", "Weekly"})
	for i := 1; i <= 3; i++ {
		persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", i)
		testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Chips", "Daily"))
	}

	orch := NewOrchestrator(db, testutil.FixedAnswers("Chips", "Daily"), cfg)

	resp, runs, err := orch.StartRerun(context.Background(), surveyID, 1, "")
	if err != nil {
		t.Fatalf("StartRerun failed: %v", err)
	}

	progress, err := orch.Progress(resp.RunID)
	if err != nil {
		t.Fatalf("Progress before execution failed: %v", err)
	}
	if progress.Completed != 0 || progress.Total != 3 {
		t.Errorf("Expected 0/3 before execution, got %d/%d", progress.Completed, progress.Total)
	}

	orch.RunBatch(context.Background(), runs)

	progress, err = orch.Progress(resp.RunID)
	if err != nil {
		t.Fatalf("Progress after execution failed: %v", err)
	}
	if progress.Completed != 3 || progress.Total != 3 {
		t.Errorf("Expected 3/3 after execution, got %d/%d", progress.Completed, progress.Total)
	}
}

func TestProgressUnknownRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	orch := NewOrchestrator(db, testutil.FixedAnswers("x"), testutil.GetTestConfig())

	_, err := orch.Progress("does-not-exist")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown run, got %v", err)
	}
}

func TestListRunsOrderedByRunNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	surveyID := testutil.CreateTestSurvey(t, db, "List Survey")
	testutil.AddTestQuestion(t, db, surveyID, 1, "Favorite snack?", "single_select", []string{"Chips"})
	persona := testutil.CreateTestPersona(t, db, surveyID, "Value Shopper", 1)
	testutil.InsertTestResult(t, db, surveyID, persona.ID, 1, "OpenAI", testutil.Answers("Chips"))

	orch := NewOrchestrator(db, testutil.FixedAnswers("Chips"), cfg)

	_, runs, err := orch.StartRerun(context.Background(), surveyID, 3, "batch")
	if err != nil {
		t.Fatalf("StartRerun failed: %v", err)
	}
	// Complete only the first run; the rest stay pending.
	orch.RunBatch(context.Background(), runs[:1])

	list, err := orch.ListRuns(surveyID)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(list))
	}
	for i, entry := range list {
		if entry.Run.RunNumber != i+2 {
			t.Errorf("Entry %d: expected run number %d, got %d", i, i+2, entry.Run.RunNumber)
		}
	}
	if list[0].Completed != 1 || list[0].Total != 1 {
		t.Errorf("Expected first run complete (1/1), got %d/%d", list[0].Completed, list[0].Total)
	}
	if list[1].Completed != 0 {
		t.Errorf("Expected second run pending, got %d completed", list[1].Completed)
	}
}
