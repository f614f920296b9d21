package services

import (
	"testing"
)

func TestParseInsightJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `[{"type":"task","content":"renew domain","projects":["Infra"]}]`,
			want: 1,
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: 0,
		},
		{
			name: "fenced array",
			raw:  "```json\n[{\"type\":\"idea\",\"content\":\"weekly review\"}]\n```",
			want: 1,
		},
		{
			name: "fence without language tag",
			raw:  "```\n[{\"type\":\"decision\",\"content\":\"use yaml\"}]\n```",
			want: 1,
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  [{\"type\":\"task\",\"content\":\"x\"}]  \n",
			want: 1,
		},
		{
			name:    "prose instead of JSON",
			raw:     "Here are the insights I found: none.",
			wantErr: true,
		},
		{
			name:    "object instead of array",
			raw:     `{"type":"task","content":"x"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInsightJSON(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected parse error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInsightJSON failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("parsed %d insights, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseInsightJSON_Fields(t *testing.T) {
	got, err := parseInsightJSON(`[{"type":"connection","content":"both projects need auth","projects":["Atlas","Beacon"]}]`)
	if err != nil {
		t.Fatalf("parseInsightJSON failed: %v", err)
	}
	if got[0].Type != "connection" {
		t.Errorf("type = %s", got[0].Type)
	}
	if len(got[0].Projects) != 2 {
		t.Errorf("projects = %v", got[0].Projects)
	}
}
