package watch

import (
	"testing"

	"github.com/novelaire/novelaire/gate"
)

func TestGatesFor(t *testing.T) {
	tests := []struct {
		name   string
		rel    string
		gates  []gate.Type
		target string
	}{
		{
			name:  "spec entry",
			rel:   "spec/characters/elara.md",
			gates: []gate.Type{gate.TypeSpec, gate.TypeConsistency},
		},
		{
			name:  "coarse outline",
			rel:   "outline/outline.md",
			gates: []gate.Type{gate.TypeOutline},
		},
		{
			name:  "fine outline file",
			rel:   "outline/fine-outline.md",
			gates: []gate.Type{gate.TypeFineOutline},
		},
		{
			name:  "fine outline directory",
			rel:   "outline/fine/act-one.md",
			gates: []gate.Type{gate.TypeFineOutline},
		},
		{
			name:  "other outline material",
			rel:   "outline/beats.md",
			gates: []gate.Type{gate.TypeOutline},
		},
		{
			name:   "chapter",
			rel:    "chapters/ch01.md",
			gates:  []gate.Type{gate.TypeChapter, gate.TypeRegression},
			target: "chapters/ch01.md",
		},
		{
			name:   "draft",
			rel:    "drafts/scene.md",
			gates:  []gate.Type{gate.TypeChapter, gate.TypeRegression},
			target: "drafts/scene.md",
		},
		{
			name:  "unrelated file",
			rel:   "README.md",
			gates: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := gatesFor(tt.rel)
			if len(runs) != len(tt.gates) {
				t.Fatalf("gatesFor(%q) = %d runs, want %d", tt.rel, len(runs), len(tt.gates))
			}
			for i, run := range runs {
				if run.gate != tt.gates[i] {
					t.Errorf("run %d gate = %s, want %s", i, run.gate, tt.gates[i])
				}
			}
			if tt.target != "" && runs[0].target != tt.target {
				t.Errorf("target = %q, want %q", runs[0].target, tt.target)
			}
		})
	}
}
