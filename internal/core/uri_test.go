package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestURIJoinAndContains(t *testing.T) {
	cases := map[string]struct {
		reason string
		base   URI
		other  URI
		want   bool
	}{
		"SamePath": {
			reason: "A URI contains itself.",
			base:   NewURI("/root/workspace"),
			other:  NewURI("/root/workspace"),
			want:   true,
		},
		"Descendant": {
			reason: "A URI contains a path nested beneath it.",
			base:   NewURI("/root/workspace"),
			other:  NewURI("/root/workspace/src/main.ral"),
			want:   true,
		},
		"Sibling": {
			reason: "A URI does not contain a sibling directory with a shared prefix.",
			base:   NewURI("/root/workspace"),
			other:  NewURI("/root/workspace-other/main.ral"),
			want:   false,
		},
		"Unrelated": {
			reason: "A URI does not contain an unrelated path.",
			base:   NewURI("/root/workspace"),
			other:  NewURI("/elsewhere/main.ral"),
			want:   false,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := tc.base.Contains(tc.other)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("\n%s\nContains(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestURIRel(t *testing.T) {
	base := NewURI("/root/workspace")

	rel, ok := base.Rel(NewURI("/root/workspace/src/main.ral"))
	if !ok {
		t.Fatalf("Rel(...): want ok=true, got false")
	}
	if diff := cmp.Diff("src/main.ral", rel); diff != "" {
		t.Errorf("Rel(...): -want, +got:\n%s", diff)
	}

	if _, ok := base.Rel(NewURI("/elsewhere/main.ral")); ok {
		t.Errorf("Rel(...): want ok=false for an unrelated path, got true")
	}
}

func TestURIFromLSPRoundTrip(t *testing.T) {
	u := FromLSP("file:///root/workspace/ralph.json")
	if diff := cmp.Diff("/root/workspace/ralph.json", u.Path()); diff != "" {
		t.Errorf("FromLSP(...): -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff("file:///root/workspace/ralph.json", string(u.ToLSP())); diff != "" {
		t.Errorf("ToLSP(...): -want, +got:\n%s", diff)
	}
}

func TestURIFilenameAndExtension(t *testing.T) {
	u := NewURI("/root/workspace/ralph.json")
	if diff := cmp.Diff("ralph.json", u.Filename()); diff != "" {
		t.Errorf("Filename(): -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff(".json", u.Extension()); diff != "" {
		t.Errorf("Extension(): -want, +got:\n%s", diff)
	}
}

func TestURIIsZero(t *testing.T) {
	if !(URI{}).IsZero() {
		t.Errorf("IsZero(): want true for the zero-value URI")
	}
	if NewURI("/a").IsZero() {
		t.Errorf("IsZero(): want false for a constructed URI")
	}
}
