package topic

import "testing"

func TestSeedCoversEveryIntent(t *testing.T) {
	topics := Seed()
	if len(topics) != 5 {
		t.Fatalf("Seed() returned %d topics, want 5", len(topics))
	}

	seen := make(map[string]bool)
	for _, tp := range topics {
		if tp.ID == "" || tp.Title == "" || tp.Intent == "" {
			t.Fatalf("topic %+v missing required fields", tp)
		}
		if len(tp.SampleQuestions) == 0 {
			t.Fatalf("topic %s has no sample questions", tp.ID)
		}
		if seen[tp.Intent] {
			t.Fatalf("duplicate intent %s", tp.Intent)
		}
		seen[tp.Intent] = true
	}
}

func TestMemoryStoreFindByID(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindByID("hydration")
	if !ok {
		t.Fatal("FindByID(hydration) not found")
	}
	if got.Intent != "HydrationInfo" {
		t.Fatalf("intent = %q, want HydrationInfo", got.Intent)
	}

	if _, ok := store.FindByID("nope"); ok {
		t.Fatal("FindByID(nope) found, want miss")
	}
}
