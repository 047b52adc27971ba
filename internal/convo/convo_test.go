package convo

import (
	"fmt"
	"testing"
)

func TestWindowTrimsToLastFive(t *testing.T) {
	t.Parallel()

	turns := make([]Turn, 0, 8)
	for i := 0; i < 8; i++ {
		turns = append(turns, User(fmt.Sprintf("message %d", i)))
	}

	got := Window(turns)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, turn := range got {
		want := fmt.Sprintf("message %d", i+3)
		if turn.Content != want {
			t.Fatalf("turn %d content = %q, want %q", i, turn.Content, want)
		}
	}
}

func TestWindowKeepsShortHistoryUnchanged(t *testing.T) {
	t.Parallel()

	turns := []Turn{User("a"), Assistant("b"), User("c")}
	got := Window(turns)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Fatalf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Fatal("known roles reported invalid")
	}
	if Role("system").Valid() {
		t.Fatal("unknown role reported valid")
	}
}
