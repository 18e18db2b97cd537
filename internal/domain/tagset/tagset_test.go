package tagset

import (
	"testing"

	"github.com/tupiana/lexipipe/pkg/errors"
)

func validNodes() []Node {
	return []Node{
		{Code: "AL", Depth: 1, Label: "alimentação"},
		{Code: "NA", Depth: 1, Label: "natureza"},
		{Code: "AL.BE", ParentCode: "AL", Depth: 2, Label: "bebidas"},
		{Code: "AL.BE.QU", ParentCode: "AL.BE", Depth: 3, Label: "bebidas quentes"},
	}
}

func TestNodeValidate(t *testing.T) {
	cases := []struct {
		name string
		node Node
		ok   bool
	}{
		{"depth-1 root", Node{Code: "AL", Depth: 1}, true},
		{"depth-2 with parent", Node{Code: "AL.BE", ParentCode: "AL", Depth: 2}, true},
		{"empty code", Node{Depth: 1}, false},
		{"depth zero", Node{Code: "X", Depth: 0}, false},
		{"depth five", Node{Code: "X", ParentCode: "Y", Depth: 5}, false},
		{"root with parent", Node{Code: "AL", ParentCode: "NA", Depth: 1}, false},
		{"orphan", Node{Code: "AL.BE", Depth: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.node.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNewAcceptsValidTree(t *testing.T) {
	tax, report := New(validNodes())
	if report.Rejected != 0 {
		t.Fatalf("expected zero rejections, got %d (%v)", report.Rejected, report.Reasons)
	}
	if report.Accepted != 4 {
		t.Fatalf("expected 4 accepted, got %d", report.Accepted)
	}
	// Sentinels are always present on top of the input nodes.
	if !tax.Contains(NoDomainCode) || !tax.Contains(NotClassifiedCode) {
		t.Fatal("sentinel codes missing from taxonomy")
	}
}

func TestNewRejectsOrphanWithCount(t *testing.T) {
	nodes := append(validNodes(), Node{Code: "ZZ.XX", ParentCode: "ZZ", Depth: 2, Label: "orphan"})
	tax, report := New(nodes)
	if report.Rejected != 1 {
		t.Fatalf("expected 1 rejection, got %d", report.Rejected)
	}
	if report.Reasons[errors.ErrCodeTagsetOrphanNode.String()] != 1 {
		t.Fatalf("expected orphan reason count, got %v", report.Reasons)
	}
	if tax.Contains("ZZ.XX") {
		t.Fatal("orphan node must not enter the taxonomy")
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	nodes := append(validNodes(), Node{Code: "AL", Depth: 1, Label: "dup"})
	_, report := New(nodes)
	if report.Reasons["duplicate_code"] != 1 {
		t.Fatalf("expected duplicate_code rejection, got %v", report.Reasons)
	}
}

func TestPathToRoot(t *testing.T) {
	tax, _ := New(validNodes())
	path, err := tax.PathToRoot("AL.BE.QU")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"AL.BE.QU", "AL.BE", "AL"}
	if len(path) != len(want) {
		t.Fatalf("path length %d, want %d", len(path), len(want))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path[%d] = %q, want %q", i, path[i], want[i])
		}
	}
}

func TestResolveUnknownCode(t *testing.T) {
	tax, _ := New(validNodes())
	_, err := tax.Resolve("XX")
	if !errors.IsCode(err, errors.ErrCodeTagsetNodeNotFound) {
		t.Fatalf("expected TAG_001, got %v", err)
	}
}
